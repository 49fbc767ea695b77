// Command ws_smoke is a manual smoke-test client: it authenticates as a
// guest, identifies over the websocket, joins a room and sends a message.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/roomcast/roomcast-server/internal/proto"
)

func main() {
	base := flag.String("base", "http://localhost:8080", "server base URL")
	room := flag.String("room", "1", "room id to join")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	token, err := guestToken(ctx, *base)
	if err != nil {
		log.Fatalf("guest login: %v", err)
	}

	wsURL := strings.Replace(*base, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	mustSend := func(msgType string, data any) {
		payload, _ := json.Marshal(data)
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: payload}); err != nil {
			log.Fatalf("send %s: %v", msgType, err)
		}
	}

	mustSend(proto.InboundTypeIdentify, proto.IdentifyData{Token: token})
	mustSend(proto.InboundTypeJoin, proto.RoomData{Room: *room})
	mustSend(proto.InboundTypeMsg, proto.MsgData{Room: *room, Text: *text})

	for {
		var out proto.Outbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			log.Fatalf("read: %v", err)
		}
		raw, _ := json.Marshal(out)
		fmt.Println(string(raw))
	}
}

func guestToken(ctx context.Context, base string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/guest", bytes.NewReader(nil))
	if err != nil {
		return "", err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.Token, nil
}
