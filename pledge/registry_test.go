package pledge

import (
	"testing"

	perrors "pledged/errors"
)

func TestRegistry_RegisterGetRemove(t *testing.T) {
	r := NewRegistry()
	s := NewState()

	sess, err := r.Register(100, s)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if sess.PID != 100 {
		t.Errorf("sess.PID = %d, want 100", sess.PID)
	}
	if sess.ID.String() == "" {
		t.Error("sess.ID should be non-empty")
	}

	got, err := r.Get(100)
	if err != nil || got != sess {
		t.Errorf("Get(100) = (%v, %v), want (%v, nil)", got, err, sess)
	}

	r.Remove(100)
	if _, err := r.Get(100); !perrors.Is(err, perrors.ErrProcessNotFound) {
		t.Errorf("Get() after Remove = %v, want ErrProcessNotFound", err)
	}
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Register(5, NewState()); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	_, err := r.Register(5, NewState())
	if !perrors.Is(err, perrors.ErrAlreadyTraced) {
		t.Errorf("duplicate Register() = %v, want ErrAlreadyTraced", err)
	}
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry()
	r.Register(1, NewState())
	r.Register(2, NewState())
	list := r.List()
	if len(list) != 2 {
		t.Errorf("List() len = %d, want 2", len(list))
	}
}

func TestRegistry_SignalUnknownPID(t *testing.T) {
	r := NewRegistry()
	if err := r.Signal(999, 0); !perrors.Is(err, perrors.ErrProcessNotFound) {
		t.Errorf("Signal(unknown) = %v, want ErrProcessNotFound", err)
	}
}
