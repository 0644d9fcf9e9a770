package reconciler

import (
	"testing"
	"time"

	"github.com/corenet/netd/pkg/types"
)

func TestContainerWaiterWaitReturnsImmediatelyWhenEpochAlreadyAdvanced(t *testing.T) {
	tree := newFakeTree()
	tree.addChild("root", "c1")
	tree.states["c1"].Epoch = 1
	tree.states["c1"].NetState = types.NetStateSuccess

	w := NewContainerWaiter()
	done := make(chan struct{})
	go func() {
		w.Wait(tree.findByID("c1"), tree, 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return for an already-advanced epoch")
	}
}

func TestContainerWaiterNotifyWakesWaiter(t *testing.T) {
	tree := newFakeTree()
	tree.addChild("root", "c1")
	tree.states["c1"].NetState = types.NetStateQueued

	w := NewContainerWaiter()
	done := make(chan struct{})
	go func() {
		w.Wait(tree.findByID("c1"), tree, 0)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)

	lock := tree.NetStateLock(tree.findByID("c1"))
	lock.Lock()
	tree.states["c1"].Epoch = 1
	tree.states["c1"].NetState = types.NetStateSuccess
	w.Notify(tree.findByID("c1"), tree)
	lock.Unlock()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify did not wake the waiter")
	}
}

// TestContainerWaiterWaitStopsOnErrorStateEvenWithoutEpochAdvance covers
// the bug where a failed reconciliation left Epoch untouched: Wait must
// still return once NetState leaves Queued, regardless of Epoch, so a
// waiter is never left blocked forever after an error.
func TestContainerWaiterWaitStopsOnErrorStateEvenWithoutEpochAdvance(t *testing.T) {
	tree := newFakeTree()
	tree.addChild("root", "c1")
	tree.states["c1"].NetState = types.NetStateQueued

	w := NewContainerWaiter()
	done := make(chan struct{})
	go func() {
		w.Wait(tree.findByID("c1"), tree, 0)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)

	lock := tree.NetStateLock(tree.findByID("c1"))
	lock.Lock()
	tree.states["c1"].NetState = types.NetStateError
	tree.states["c1"].NetStateError = assertErr
	w.Notify(tree.findByID("c1"), tree)
	lock.Unlock()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait stayed blocked after an error state with no epoch advance")
	}
}

var assertErr = errString("boom")

type errString string

func (e errString) Error() string { return string(e) }
