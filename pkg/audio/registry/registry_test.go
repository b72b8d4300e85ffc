package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type lowFactory struct{}
type highFactory struct{}

func TestPrioritized(t *testing.T) {
	r := newPrioritized[any]("thing")
	r.register(1, lowFactory{})
	r.register(10, &highFactory{})

	list := r.list()
	assert.Len(t, list, 2)
	assert.IsType(t, &highFactory{}, list[0])
	assert.IsType(t, lowFactory{}, list[1])

	assert.Panics(t, func() {
		r.register(5, highFactory{})
	})
}
