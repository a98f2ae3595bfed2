package java

import (
	"net"
)

// Filterer decides whether an accepted connection is served at all. A
// non-nil error rejects c before any byte is read.
type Filterer interface {
	Filter(c net.Conn) error
}

type FilterFunc func(c net.Conn) error

func (fn FilterFunc) Filter(c net.Conn) error {
	return fn(c)
}

// Filters runs every Filterer in order and stops at the first rejection.
type Filters []Filterer

func (fs Filters) Filter(c net.Conn) error {
	for _, f := range fs {
		if err := f.Filter(c); err != nil {
			return err
		}
	}
	return nil
}
