/*
Package moose is a library for storing and drawing moose, small pixel art
images drawn with a fixed palette of 100 colors.
*/
package moose

import (
	"log"
	"sync/atomic"
)

// Herd is a collection of moose backed by a database.
type Herd struct {
	db     *MooseDB
	logger *log.Logger

	// Set whenever a moose is added since the last dump
	changed int32
}

// New opens the database in file.
func New(file string, logger *log.Logger) (*Herd, error) {
	db, err := NewMooseDB(file)
	if err != nil {
		return nil, err
	}

	return &Herd{
		db:      db,
		logger:  logger,
		changed: 1,
	}, nil
}

// Close closes the database.
func (h *Herd) Close() error {
	return h.db.Close()
}

// DB returns the underlying database.
func (h *Herd) DB() *MooseDB {
	return h.db
}

// Get returns the moose called name. Random, Latest and Oldest select a
// moose instead, in which case special is true. A nil moose means there is
// no such moose.
func (h *Herd) Get(name string) (m *Moose, special bool, err error) {
	switch name {
	case Random:
		m, err = h.db.Random()
	case Latest:
		m, err = h.db.Latest()
	case Oldest:
		m, err = h.db.Oldest()
	default:
		m, err = h.db.Get(name)
		return m, false, err
	}
	return m, true, err
}

// Add validates and stores a new moose.
func (h *Herd) Add(m *Moose) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if err := h.db.Insert(m); err != nil {
		return err
	}
	atomic.StoreInt32(&h.changed, 1)
	h.logger.Printf("Added moose %q\n", m.Name)
	return nil
}
