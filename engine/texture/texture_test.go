package texture

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/backend/backendtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameHashStable(t *testing.T) {
	assert.Equal(t, NameHash("mario_cap"), NameHash("mario_cap"))
	assert.NotEqual(t, NameHash("mario_cap"), NameHash("mario_cop"))
	assert.NotZero(t, NameHash(""))
}

func TestNameTableBothDirections(t *testing.T) {
	names := NewNameTable()
	h := names.Hash("castle_grounds.wall")

	name, ok := names.Name(h)
	require.True(t, ok)
	assert.Equal(t, "castle_grounds.wall", name)

	back, ok := names.Lookup("castle_grounds.wall")
	require.True(t, ok)
	assert.Equal(t, h, back)

	_, ok = names.Lookup("unknown")
	assert.False(t, ok)
	assert.Equal(t, 1, names.Len())
}

func TestTableRecordsAndSampler(t *testing.T) {
	table := NewTable(NewNameTable())
	a := table.NewTexture("a")
	b := table.NewTexture("b")
	assert.Equal(t, uint32(0), a)
	assert.Equal(t, uint32(1), b)

	table.Select(1, b)
	table.SetSamplerParams(1, true, 2, 1)

	r, ok := table.TileRecord(1)
	require.True(t, ok)
	assert.Equal(t, b, r.ID)
	assert.Equal(t, backend.FilterLinear, r.Filter())
	assert.Equal(t, backend.AddressingClamp, backend.AddressingFromTileBits(r.CMS))
	assert.Equal(t, backend.AddressingMirror, backend.AddressingFromTileBits(r.CMT))

	id, ok := table.IDForHash(NameHash("b"))
	require.True(t, ok)
	assert.Equal(t, b, id)

	assert.Panics(t, func() { table.Select(2, a) })
	assert.Panics(t, func() { table.SetSamplerParams(-1, false, 0, 0) })
}

func TestTableDrainPublishesBackendTextures(t *testing.T) {
	fake := backendtest.New()
	table := NewTable(NewNameTable())
	id := table.NewTexture("coin")

	table.Select(0, id)
	pixels := []byte{1, 2, 3, 4}
	table.Upload(pixels, 1, 1)
	pixels[0] = 9
	assert.Zero(t, table.BackendTexture(id))
	assert.Equal(t, 1, table.PendingUploads())

	assert.Equal(t, 1, table.Drain(fake))
	first := table.BackendTexture(id)
	require.NotZero(t, first)
	assert.Equal(t, byte(1), fake.Textures[first].Pixels[0])

	table.Upload([]byte{5, 6, 7, 8}, 1, 1)
	assert.Equal(t, 1, table.Drain(fake))
	second := table.BackendTexture(id)
	assert.NotEqual(t, first, second)
	_, stillThere := fake.Textures[first]
	assert.False(t, stillThere)

	table.Release(fake)
	assert.Empty(t, fake.Textures)
}

func TestUploadQueueConcurrentPush(t *testing.T) {
	var q UploadQueue
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				q.Push(uint32(i), []byte{0, 0, 0, 0}, 1, 1)
			}
		}()
	}
	wg.Wait()
	assert.Len(t, q.Drain(), 400)
	assert.Zero(t, q.Len())
}
