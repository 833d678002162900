package asciiport

import (
	"bufio"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/stev4501/e84ctl/internal/loadport"
)

// fakePeer answers requests arriving on t with canned responses keyed
// by verb, simulating the load port's own firmware.
func fakePeer(t *testing.T, peer Transport, responses map[Verb]string) {
	t.Helper()
	lt := peer.(*lineTransport)
	go func() {
		r := bufio.NewReader(lt.rwc)
		for {
			line, err := r.ReadString('\r')
			if err != nil {
				return
			}
			verb := Verb(line[:len(line)-1])
			resp, ok := responses[verb]
			if !ok {
				resp = "ERR:UNK"
			}
			if _, err := lt.rwc.Write([]byte(resp + "\r")); err != nil {
				return
			}
		}
	}()
}

func TestCoordinatorPrepareForLoadOK(t *testing.T) {
	core, peer := OpenLoopbackPair()
	fakePeer(t, peer, map[Verb]string{VerbLoad: "OK"})

	c := New(core, time.Second, 0, zerolog.Nop())
	results := make(chan loadport.Result, 1)
	c.PrepareForLoad(func(r loadport.Result) { results <- r })

	select {
	case r := <-results:
		require.True(t, r.Ready)
	case <-time.After(time.Second):
		t.Fatal("prepare for load never completed")
	}
}

func TestCoordinatorPrepareForLoadDockFailure(t *testing.T) {
	core, peer := OpenLoopbackPair()
	fakePeer(t, peer, map[Verb]string{VerbLoad: "ERR:DOCK_FAIL"})

	c := New(core, time.Second, 0, zerolog.Nop())
	results := make(chan loadport.Result, 1)
	c.PrepareForLoad(func(r loadport.Result) { results <- r })

	select {
	case r := <-results:
		require.False(t, r.Ready)
		require.Equal(t, loadport.FaultDockFailure, r.Reason)
	case <-time.After(time.Second):
		t.Fatal("prepare for load never completed")
	}
}

func TestCoordinatorQueuesRequestsInOrder(t *testing.T) {
	core, peer := OpenLoopbackPair()
	fakePeer(t, peer, map[Verb]string{VerbLoad: "OK", VerbUnload: "OK"})

	c := New(core, time.Second, 0, zerolog.Nop())
	results := make(chan string, 2)
	c.PrepareForLoad(func(r loadport.Result) { results <- "load" })
	c.PrepareForUnload(func(r loadport.Result) { results <- "unload" })

	require.Equal(t, "load", <-results)
	require.Equal(t, "unload", <-results)
}
