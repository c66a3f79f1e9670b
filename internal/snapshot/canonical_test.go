package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marshal(t *testing.T, v Value) string {
	t.Helper()
	b, err := MarshalCanonical(v)
	require.NoError(t, err)
	return string(b)
}

func TestMarshalCanonicalPrimitives(t *testing.T) {
	assert.Equal(t, `"asap"`, marshal(t, String("asap")))
	assert.Equal(t, `42`, marshal(t, Int(42)))
	assert.Equal(t, `-7`, marshal(t, Int(-7)))
	assert.Equal(t, `true`, marshal(t, Bool(true)))
	assert.Equal(t, `false`, marshal(t, Bool(false)))
	assert.Equal(t, `[]`, marshal(t, Array{}))
	assert.Equal(t, `{}`, marshal(t, Object{}))
}

func TestMarshalCanonicalSortsObjectKeys(t *testing.T) {
	obj := Object{"b": Int(2), "aa": Int(3), "a": Int(1)}

	assert.Equal(t, `{"a":1,"aa":3,"b":2}`, marshal(t, obj))
}

func TestMarshalCanonicalSortsByUTF16CodeUnits(t *testing.T) {
	// U+1D11E encodes as the surrogate pair D834 DD1E, which orders before
	// U+FB33 in UTF-16 but after it in UTF-8 bytes.
	obj := Object{"\U0001D11E": Int(1), "דּ": Int(2)}

	assert.Equal(t, "{\"\U0001D11E\":1,\"דּ\":2}", marshal(t, obj))
}

func TestMarshalCanonicalNormalizesToNFC(t *testing.T) {
	// Decomposed e + combining acute collapses to the precomposed form.
	assert.Equal(t, "\"é\"", marshal(t, String("é")))
}

func TestMarshalCanonicalDoesNotEscapeHTML(t *testing.T) {
	assert.Equal(t, `"a<b&c>"`, marshal(t, String("a<b&c>")))
}

func TestMarshalCanonicalNestedComposite(t *testing.T) {
	obj := Object{
		"laps":  Object{"in0.out0>add0.in0": Int(1)},
		"cells": Array{Array{String("add0"), String("add1")}, Array{}},
	}

	assert.Equal(t, `{"cells":[["add0","add1"],[]],"laps":{"in0.out0>add0.in0":1}}`, marshal(t, obj))
}

func TestMarshalCanonicalRejectsNil(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(Object{"x": nil})
	assert.ErrorContains(t, err, `key "x"`)

	_, err = MarshalCanonical(Array{nil})
	assert.ErrorContains(t, err, "array[0]")
}

func TestHashDomainSeparation(t *testing.T) {
	data := []byte(`{"schedule_time":5}`)

	h1 := hashWithDomain(DomainSchedule, data)
	h2 := hashWithDomain(DomainArchitecture, data)

	assert.Len(t, h1, 64)
	assert.Len(t, h2, 64)
	assert.NotEqual(t, h1, h2)
	assert.Equal(t, h1, hashWithDomain(DomainSchedule, data))
}
