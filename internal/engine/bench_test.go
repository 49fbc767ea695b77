package engine

import (
	"context"
	"strconv"
	"testing"
)

func benchmarkRoomBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g := NewGateway(Options{}, nil, nil)
	go g.Run(ctx)

	sender := g.NewConn()
	g.Attach(sender)
	sender.Commands <- &Command{Kind: CommandIdentify, Identity: "sender"}
	sender.Commands <- &Command{Kind: CommandJoinRoom, Room: "bench"}

	conns := make([]*Conn, 0, recipients)
	for i := 0; i < recipients; i++ {
		c := g.NewConn()
		g.Attach(c)
		c.Commands <- &Command{Kind: CommandIdentify, Identity: "u" + strconv.Itoa(i)}
		c.Commands <- &Command{Kind: CommandJoinRoom, Room: "bench"}
		conns = append(conns, c)
	}

	// Drain events for all but the first recipient to avoid channel backpressure.
	target := conns[0]
	for _, c := range conns[1:] {
		go func(events <-chan *Event) {
			for range events {
			}
		}(c.Events)
	}
	go func() {
		for range sender.Events {
		}
	}()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sender.Commands <- &Command{Kind: CommandSendMessage, Room: "bench", Text: "payload"}
		for ev := range target.Events {
			if ev.Kind == EventRoomMessage {
				break
			}
		}
	}
}

func BenchmarkRoomBroadcast_10(b *testing.B)  { benchmarkRoomBroadcast(b, 10) }
func BenchmarkRoomBroadcast_100(b *testing.B) { benchmarkRoomBroadcast(b, 100) }
func BenchmarkRoomBroadcast_500(b *testing.B) { benchmarkRoomBroadcast(b, 500) }
