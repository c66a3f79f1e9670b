// Package testutil builds the DSP filter graphs shared across package
// tests: a first-order IIR section, a direct-form-1 biquad and an 8-point
// radix-2 FFT. All fixtures instantiate operators from the builtin
// library so the CUE compilation path is exercised everywhere.
package testutil

import (
	"fmt"

	"github.com/mlindgren/hwsched/internal/oplib"
	"github.com/mlindgren/hwsched/internal/sfg"
)

type builder struct {
	g   *sfg.Graph
	lib *oplib.Library
}

func newBuilder() *builder {
	lib, err := oplib.Builtin()
	if err != nil {
		panic(fmt.Sprintf("builtin operator library: %v", err))
	}
	return &builder{g: sfg.New(), lib: lib}
}

// add instantiates one operator with per-port offset overrides and an
// optional execution time.
func (b *builder) add(typeName string, offsets map[string]int, execTime *int) sfg.OpID {
	t, ok := b.lib.Type(typeName)
	if !ok {
		panic(fmt.Sprintf("unknown operator type %q", typeName))
	}
	op, err := b.g.AddOperation(t.Spec("", offsets, execTime))
	if err != nil {
		panic(err)
	}
	return op.ID()
}

func (b *builder) connect(src sfg.OpID, srcPort string, dst sfg.OpID, dstPort string) {
	if _, err := b.g.Connect(src, srcPort, dst, dstPort); err != nil {
		panic(err)
	}
}

func intp(n int) *int { return &n }

// FirstOrderIIR builds y(n) = x(n) + a*y(n-1): one input, one feedback
// delay, a constant multiplication with latency 4 and an addition with
// latency 5. The arithmetic operators configure latencies only, no
// execution times.
func FirstOrderIIR() *sfg.Graph {
	b := newBuilder()
	in := b.add(sfg.TypeInput, nil, intp(0))
	t0 := b.add(sfg.TypeDelay, nil, nil)
	cmul := b.add("ConstantMultiplication", map[string]int{"out0": 4}, nil)
	add := b.add("Addition", map[string]int{"out0": 5}, nil)
	out := b.add(sfg.TypeOutput, nil, intp(0))

	b.connect(in, "out0", add, "in0")
	b.connect(t0, "out0", cmul, "in0")
	b.connect(cmul, "out0", add, "in1")
	b.connect(add, "out0", t0, "in0")
	b.connect(add, "out0", out, "in0")
	return b.g
}

// DirectForm1IIR builds a direct-form-1 biquad,
// y(n) = sum b_i x(n-i) + sum a_i y(n-i), with three feed-forward and two
// feedback coefficients. Constant multiplications carry latency 5 and
// additions latency 2, with execution time 1 each.
func DirectForm1IIR() *sfg.Graph {
	b := newBuilder()
	cmulOff := map[string]int{"out0": 5}
	addOff := map[string]int{"out0": 2}

	in := b.add(sfg.TypeInput, nil, intp(0))
	t0 := b.add(sfg.TypeDelay, nil, nil) // x(n-1)
	t1 := b.add(sfg.TypeDelay, nil, nil) // x(n-2)
	t2 := b.add(sfg.TypeDelay, nil, nil) // y(n-1)
	t3 := b.add(sfg.TypeDelay, nil, nil) // y(n-2)
	b0 := b.add("ConstantMultiplication", cmulOff, intp(1))
	b1 := b.add("ConstantMultiplication", cmulOff, intp(1))
	b2 := b.add("ConstantMultiplication", cmulOff, intp(1))
	a1 := b.add("ConstantMultiplication", cmulOff, intp(1))
	a2 := b.add("ConstantMultiplication", cmulOff, intp(1))
	add0 := b.add("Addition", addOff, intp(1)) // b1 + b2 taps
	add1 := b.add("Addition", addOff, intp(1)) // b0 + add0
	add2 := b.add("Addition", addOff, intp(1)) // a1 + a2 taps
	add3 := b.add("Addition", addOff, intp(1)) // feed-forward + feedback
	out := b.add(sfg.TypeOutput, nil, intp(0))

	b.connect(in, "out0", b0, "in0")
	b.connect(in, "out0", t0, "in0")
	b.connect(t0, "out0", t1, "in0")
	b.connect(t0, "out0", b1, "in0")
	b.connect(t1, "out0", b2, "in0")
	b.connect(b1, "out0", add0, "in0")
	b.connect(b2, "out0", add0, "in1")
	b.connect(b0, "out0", add1, "in0")
	b.connect(add0, "out0", add1, "in1")
	b.connect(t2, "out0", a1, "in0")
	b.connect(t3, "out0", a2, "in0")
	b.connect(a1, "out0", add2, "in0")
	b.connect(a2, "out0", add2, "in1")
	b.connect(add1, "out0", add3, "in0")
	b.connect(add2, "out0", add3, "in1")
	b.connect(add3, "out0", t2, "in0")
	b.connect(t2, "out0", t3, "in0")
	b.connect(add3, "out0", out, "in0")
	return b.g
}

// FFT8 builds an 8-point radix-2 decimation-in-time FFT: twelve
// butterflies with latency 1 and five twiddle multiplications with
// latency 2, execution time 1 each. Inputs are connected in bit-reversed
// order, outputs in natural order.
func FFT8() *sfg.Graph {
	b := newBuilder()
	bflyOff := map[string]int{"out0": 1, "out1": 1}
	cmulOff := map[string]int{"out0": 2}

	var ins [8]sfg.OpID
	for i := range ins {
		ins[i] = b.add(sfg.TypeInput, nil, intp(0))
	}

	// Stage 1, bit-reversed input pairs.
	bfly0 := b.add("Butterfly", bflyOff, intp(1)) // x0, x4
	bfly1 := b.add("Butterfly", bflyOff, intp(1)) // x2, x6
	bfly2 := b.add("Butterfly", bflyOff, intp(1)) // x1, x5
	bfly3 := b.add("Butterfly", bflyOff, intp(1)) // x3, x7
	b.connect(ins[0], "out0", bfly0, "in0")
	b.connect(ins[4], "out0", bfly0, "in1")
	b.connect(ins[2], "out0", bfly1, "in0")
	b.connect(ins[6], "out0", bfly1, "in1")
	b.connect(ins[1], "out0", bfly2, "in0")
	b.connect(ins[5], "out0", bfly2, "in1")
	b.connect(ins[3], "out0", bfly3, "in0")
	b.connect(ins[7], "out0", bfly3, "in1")

	// Stage 2 twiddles (W2 per group).
	cmul0 := b.add("ConstantMultiplication", cmulOff, intp(1))
	cmul1 := b.add("ConstantMultiplication", cmulOff, intp(1))
	b.connect(bfly1, "out1", cmul0, "in0")
	b.connect(bfly3, "out1", cmul1, "in0")

	// Stage 2.
	bfly4 := b.add("Butterfly", bflyOff, intp(1))
	bfly5 := b.add("Butterfly", bflyOff, intp(1))
	bfly6 := b.add("Butterfly", bflyOff, intp(1))
	bfly7 := b.add("Butterfly", bflyOff, intp(1))
	b.connect(bfly0, "out0", bfly4, "in0")
	b.connect(bfly1, "out0", bfly4, "in1")
	b.connect(bfly0, "out1", bfly5, "in0")
	b.connect(cmul0, "out0", bfly5, "in1")
	b.connect(bfly2, "out0", bfly6, "in0")
	b.connect(bfly3, "out0", bfly6, "in1")
	b.connect(bfly2, "out1", bfly7, "in0")
	b.connect(cmul1, "out0", bfly7, "in1")

	// Stage 3 twiddles (W1, W2, W3).
	cmul2 := b.add("ConstantMultiplication", cmulOff, intp(1))
	cmul3 := b.add("ConstantMultiplication", cmulOff, intp(1))
	cmul4 := b.add("ConstantMultiplication", cmulOff, intp(1))
	b.connect(bfly7, "out0", cmul2, "in0")
	b.connect(bfly6, "out1", cmul3, "in0")
	b.connect(bfly7, "out1", cmul4, "in0")

	// Stage 3.
	bfly8 := b.add("Butterfly", bflyOff, intp(1))  // X0, X4
	bfly9 := b.add("Butterfly", bflyOff, intp(1))  // X1, X5
	bfly10 := b.add("Butterfly", bflyOff, intp(1)) // X2, X6
	bfly11 := b.add("Butterfly", bflyOff, intp(1)) // X3, X7
	b.connect(bfly4, "out0", bfly8, "in0")
	b.connect(bfly6, "out0", bfly8, "in1")
	b.connect(bfly5, "out0", bfly9, "in0")
	b.connect(cmul2, "out0", bfly9, "in1")
	b.connect(bfly4, "out1", bfly10, "in0")
	b.connect(cmul3, "out0", bfly10, "in1")
	b.connect(bfly5, "out1", bfly11, "in0")
	b.connect(cmul4, "out0", bfly11, "in1")

	outs := [8]struct {
		src  sfg.OpID
		port string
	}{
		{bfly8, "out0"}, {bfly9, "out0"}, {bfly10, "out0"}, {bfly11, "out0"},
		{bfly8, "out1"}, {bfly9, "out1"}, {bfly10, "out1"}, {bfly11, "out1"},
	}
	for _, o := range outs {
		out := b.add(sfg.TypeOutput, nil, intp(0))
		b.connect(o.src, o.port, out, "in0")
	}
	return b.g
}
