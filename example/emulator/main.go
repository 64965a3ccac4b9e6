// Command emulator drives a full reflow sequence against a running server:
// identify, idle, activate a run, stream ramp/soak/cool oven samples with
// interleaved board passes, then stop. Useful for exercising the dashboard
// without hardware.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/gorilla/websocket"
)

type frame struct {
	Type     string `json:"type"`
	ClientID string `json:"clientId,omitempty"`
	Data     any    `json:"data,omitempty"`
}

type ovenRef struct {
	OvenID string `json:"ovenId"`
}

type sample struct {
	OvenID      string   `json:"ovenId"`
	DataType    string   `json:"dataType"`
	BoardID     string   `json:"boardId,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	P1          *float64 `json:"p1,omitempty"`
	P2          *float64 `json:"p2,omitempty"`
	T1          *float64 `json:"t1,omitempty"`
	T2          *float64 `json:"t2,omitempty"`
	Vx          *float64 `json:"vx,omitempty"`
	Vz          *float64 `json:"vz,omitempty"`
	Ct          *float64 `json:"ct,omitempty"`
	Vt          *float64 `json:"vt,omitempty"`
}

type phase struct {
	name     string
	target   float64
	duration time.Duration
}

func main() {
	url := flag.String("url", "ws://localhost:5000/ws/ingest", "Server ingest endpoint")
	oven := flag.String("oven", "Oven1", "Oven name registered on the server")
	boards := flag.Int("boards", 3, "Boards to report per soak tick")
	tick := flag.Duration("tick", time.Second, "Interval between samples")
	runs := flag.Int("runs", 1, "Reflow runs to execute before exiting")
	flag.Parse()

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		log.Fatalf("dial %s: %v", *url, err)
	}
	defer conn.Close()

	go drainErrors(conn)

	send(conn, frame{Type: "identify", ClientID: *oven})
	log.Printf("identified as %s, idling", *oven)
	idle(conn, *oven, 3, *tick)

	for i := 0; i < *runs; i++ {
		runSequence(conn, *oven, *boards, *tick)
		idle(conn, *oven, 3, *tick)
	}
}

func runSequence(conn *websocket.Conn, oven string, boards int, tick time.Duration) {
	send(conn, frame{Type: "ovenActive", Data: ovenRef{OvenID: oven}})
	log.Printf("%s run started", oven)

	phases := []phase{
		{name: "ramp", target: 180, duration: 10 * tick},
		{name: "soak", target: 215, duration: 20 * tick},
		{name: "reflow", target: 245, duration: 8 * tick},
		{name: "cool", target: 60, duration: 15 * tick},
	}

	temp := 25.0
	board := 0
	for _, p := range phases {
		steps := int(p.duration / tick)
		if steps < 1 {
			steps = 1
		}
		delta := (p.target - temp) / float64(steps)
		for s := 0; s < steps; s++ {
			temp += delta + rand.Float64()*2 - 1
			// One deliberate overshoot per run so out-of-range
			// warnings show up on the dashboard.
			v := temp
			if p.name == "reflow" && s == 2 {
				v += 25
			}
			send(conn, frame{Type: "newOvenData", Data: sample{
				OvenID:      oven,
				DataType:    "Oven",
				Temperature: ptr(v),
			}})

			if p.name == "soak" && boards > 0 && s%2 == 0 {
				board = board%boards + 1
				send(conn, frame{Type: "newOvenData", Data: sample{
					OvenID:   oven,
					DataType: "Board",
					BoardID:  fmt.Sprintf("board-%d", board),
					P1:       ptr(1.1 + rand.Float64()*0.2),
					P2:       ptr(2.3 + rand.Float64()*0.2),
					T1:       ptr(temp - 5 + rand.Float64()*2),
					T2:       ptr(temp - 3 + rand.Float64()*2),
					Vx:       ptr(0.4 + rand.Float64()*0.1),
					Vz:       ptr(0.2 + rand.Float64()*0.1),
					Ct:       ptr(12.5),
					Vt:       ptr(3.3),
				}})
			}
			time.Sleep(tick)
		}
		log.Printf("%s phase %s done at %.1f°C", oven, p.name, temp)
	}

	send(conn, frame{Type: "stop", Data: ovenRef{OvenID: oven}})
	log.Printf("%s run stopped", oven)
}

func idle(conn *websocket.Conn, oven string, ticks int, tick time.Duration) {
	for i := 0; i < ticks; i++ {
		send(conn, frame{Type: "newOvenData", Data: sample{
			OvenID:      oven,
			DataType:    "Oven",
			Temperature: ptr(25 + rand.Float64()),
		}})
		time.Sleep(tick)
	}
}

func send(conn *websocket.Conn, f frame) {
	if err := conn.WriteJSON(f); err != nil {
		log.Fatalf("write %s: %v", f.Type, err)
	}
}

func drainErrors(conn *websocket.Conn) {
	for {
		var reply struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&reply); err != nil {
			return
		}
		if reply.Type == "error" {
			log.Printf("server rejected frame: %s", reply.Data)
		}
	}
}

func ptr(v float64) *float64 { return &v }
