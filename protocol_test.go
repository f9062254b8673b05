package main

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"slether-arena/game"
	"slether-arena/lobby"
)

func TestNewCodec(t *testing.T) {
	for _, format := range []string{"", "json", "msgpack"} {
		if _, err := NewCodec(format); err != nil {
			t.Fatalf("NewCodec(%q): %v", format, err)
		}
	}
	if _, err := NewCodec("xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestCodecsDecodeClientMessages(t *testing.T) {
	in := ClientMessage{Type: MsgJoin, Name: "Alice", Tier: "gold", Demo: 1}
	for _, format := range []string{"json", "msgpack"} {
		codec, _ := NewCodec(format)
		data, err := codec.Encode(in)
		if err != nil {
			t.Fatalf("%s encode: %v", format, err)
		}
		var out ClientMessage
		if err := codec.Decode(data, &out); err != nil {
			t.Fatalf("%s decode: %v", format, err)
		}
		if out != in {
			t.Fatalf("%s: got %+v, want %+v", format, out, in)
		}
	}
}

func TestFrameTypes(t *testing.T) {
	j, _ := NewCodec("json")
	m, _ := NewCodec("msgpack")
	if j.FrameType() != websocket.TextMessage || m.FrameType() != websocket.BinaryMessage {
		t.Fatalf("frame types = %d, %d", j.FrameType(), m.FrameType())
	}
}

func TestMsgpackUsesCompactKeys(t *testing.T) {
	codec, _ := NewCodec("msgpack")
	data, err := codec.Encode(ErrorMsg{Type: MsgError, Message: "nope"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.Contains(string(data), "Message") {
		t.Fatalf("msgpack frame uses Go field names: %q", data)
	}
}

func TestStateMsgIsCompact(t *testing.T) {
	snap := game.Snapshot{
		Tick:      7,
		Timestamp: time.UnixMilli(1700000000123),
		Entities: []game.EntityState{{
			ID: "p1", Name: "Alice", X: 10.04, Y: 20.06, HeadRadius: 10.44,
			Body: []game.Point{{X: 4.04, Y: 20.06}}, Length: 1, Boosting: true,
		}},
		Food: []game.Food{{ID: "f1", X: 1.25, Y: 2, Value: 2, Radius: 6}},
	}
	data, err := json.Marshal(toStateMsg(snap))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(data)
	for _, want := range []string{`"t":"s"`, `"k":7`, `"ts":1700000000123`, `"x":10`, `"y":20.1`, `"s":[[4,20.1]]`, `"b":1`, `"w":10.4`} {
		if !strings.Contains(got, want) {
			t.Fatalf("state %s missing %s", got, want)
		}
	}
	if strings.Contains(got, `"o":`) {
		t.Fatalf("human entity flagged as bot: %s", got)
	}
}

func TestCashoutMsg(t *testing.T) {
	msg := toCashoutMsg(lobby.CashoutResult{Name: "A", Earnings: 1.5, Payout: 3, Elapsed: 1500 * time.Millisecond})
	if msg.Type != MsgCashedOut || msg.Elapsed != 1500 || msg.Receipt != "" {
		t.Fatalf("msg = %+v", msg)
	}
}
