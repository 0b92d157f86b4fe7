package kinetics

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKineticsStagesGlobalsAndTable(t *testing.T) {
	l := buildLayout(t, 4, 3)
	k := NewKinetics(l)

	assert.Equal(t, uint32(2), k.InstanceCount())
	assert.Equal(t, uint32(7), k.TotalVertices())

	k.PrepareFrame(0.03)
	flushed := k.Flush()
	assert.Equal(t, uint32(2), flushed)

	writes := k.StagedWriteData()
	require.Len(t, writes, 2)

	globals := writes[0]
	assert.Equal(t, BindingFrameGlobals, globals.Binding)
	assert.Equal(t, uint64(0), globals.Offset)
	require.Len(t, globals.Data, 16)
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(globals.Data[0:4]))
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(globals.Data[4:8]))
	assert.Equal(t, float32(0.03), math.Float32frombits(binary.LittleEndian.Uint32(globals.Data[8:12])))

	table := writes[1]
	assert.Equal(t, BindingInstanceTable, table.Binding)
	require.Len(t, table.Data, 2*16)
	assert.Equal(t, uint32(4), binary.LittleEndian.Uint32(table.Data[12:16]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(table.Data[28:32]))

	k.ClearStagedWriteData()
	assert.Empty(t, k.StagedWriteData())
}

func TestKineticsReflushesTableEveryFrame(t *testing.T) {
	l := buildLayout(t, 5)
	k := NewKinetics(l)

	for frame := 0; frame < 3; frame++ {
		k.PrepareFrame(float32(frame) * 0.01)
		k.Flush()
		writes := k.StagedWriteData()
		require.Len(t, writes, 2)
		k.ClearStagedWriteData()
	}
}

func TestKineticsWorkgroupCount(t *testing.T) {
	l := buildLayout(t, 4, 3)
	k := NewKinetics(l)
	assert.Equal(t, [3]uint32{1, 1, 1}, k.WorkgroupCount())

	counts := make([]int, 0, 130)
	for i := 0; i < 130; i++ {
		counts = append(counts, 4)
	}
	k = NewKinetics(buildLayout(t, counts...))
	// 520 vertices over 256-wide groups
	assert.Equal(t, [3]uint32{3, 1, 1}, k.WorkgroupCount())
}

func TestKineticsSetLayoutSwapsTable(t *testing.T) {
	k := NewKinetics(buildLayout(t, 4))
	assert.Equal(t, uint32(1), k.InstanceCount())

	k.SetLayout(buildLayout(t, 3, 3, 3))
	assert.Equal(t, uint32(3), k.InstanceCount())
	assert.Equal(t, uint32(9), k.TotalVertices())

	k.PrepareFrame(0)
	k.Flush()
	writes := k.StagedWriteData()
	require.Len(t, writes, 2)
	assert.Len(t, writes[1].Data, 3*16)
}
