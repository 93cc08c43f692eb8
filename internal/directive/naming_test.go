package directive

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hanpama/constraintgraph/internal/constraint"
)

func TestSerializeArgs(t *testing.T) {
	tests := []struct {
		name string
		args constraint.Args
		want string
	}{
		{"sorted keys", constraint.Args{"trim": true, "min": 2, "max": 10}, "max_10__min_2__trim"},
		{"false flags omitted", constraint.Args{"trim": false, "creditCard": true}, "creditCard"},
		{"identifier strings inline", constraint.Args{"case": "UPPER"}, "case_UPPER"},
		{"pattern placeholder", constraint.Args{"pattern": "/^a+$/i"}, "pattern_sub_0"},
		{"fractional number placeholder", constraint.Args{"min": 0.5}, "min_sub_0"},
		{"negative number placeholder", constraint.Args{"min": -3}, "min_sub_0"},
		{"null", constraint.Args{"max": nil}, "max_null"},
		{"empty", constraint.Args{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SerializeArgs(tt.args, NewInterner()))
		})
	}
}

func TestSerializeArgs_PlaceholdersAreStable(t *testing.T) {
	in := NewInterner()
	a := SerializeArgs(constraint.Args{"pattern": "/a/"}, in)
	b := SerializeArgs(constraint.Args{"pattern": "/b/"}, in)
	again := SerializeArgs(constraint.Args{"pattern": "/a/"}, in)

	assert.Equal(t, "pattern_sub_0", a)
	assert.Equal(t, "pattern_sub_1", b)
	assert.Equal(t, a, again)
	assert.Equal(t, 2, in.Len())
}

func TestInterner_Concurrent(t *testing.T) {
	in := NewInterner()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in.Intern("/x/")
			in.Intern("/y/")
		}()
	}
	wg.Wait()
	assert.Equal(t, 2, in.Len())
	assert.ElementsMatch(t, []int{0, 1}, []int{in.Intern("/x/"), in.Intern("/y/")})
}

func TestTypeKeyName(t *testing.T) {
	key := NewTypeKey(constraint.KindFloat, constraint.Args{"precision": 2, "minExclusive": 0}, "amount", NewInterner())
	assert.Equal(t, "ConstrainedFloat__minExclusive_0__precision_2", key.Name())
	assert.Equal(t, "amount", key.Field)
}
