package batch

import (
	"sync"

	"law-reports-backend/internal/models"
)

// Locks serializes writers per report inside one process.
type Locks struct {
	m map[models.Report]*sync.Mutex
}

func NewLocks() *Locks {
	l := &Locks{m: make(map[models.Report]*sync.Mutex, len(models.Reports))}
	for _, r := range models.Reports {
		l.m[r] = &sync.Mutex{}
	}
	return l
}

// Lock blocks until report is free and returns the unlock func.
func (l *Locks) Lock(report models.Report) func() {
	mu, ok := l.m[report]
	if !ok {
		return func() {}
	}
	mu.Lock()
	return mu.Unlock
}

// LockAll takes every report lock in a fixed order.
func (l *Locks) LockAll() func() {
	unlocks := make([]func(), 0, len(models.Reports))
	for _, r := range models.Reports {
		unlocks = append(unlocks, l.Lock(r))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}
