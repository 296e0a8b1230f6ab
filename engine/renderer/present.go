package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-rt/engine/frame"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-rt/engine/texture"
	"go.uber.org/zap"
)

func (r *renderer) Present(vsync bool) error {
	r.renderMu.Lock()
	defer r.renderMu.Unlock()

	r.textures.Drain(r.backend)

	older, newer, release := r.pipeline.Latest()
	defer release()
	if newer == nil {
		return r.draw(vsync)
	}

	t := frame.Factor(newer, r.clock.Now(), r.tick)
	res := r.interp.Blend(older, newer, t)
	if res.Seq != r.lastSeq {
		r.logger.Debug("presenting frame", zap.Uint64("seq", res.Seq), zap.Int("instances", len(res.Instances)))
		r.lastSeq = res.Seq
	}

	for len(r.instances) < len(res.Instances) {
		r.instances = append(r.instances, r.backend.CreateInstance())
	}
	for len(r.instances) > len(res.Instances) {
		last := len(r.instances) - 1
		r.backend.DestroyInstance(r.instances[last])
		r.instances = r.instances[:last]
	}

	r.lastHashes = r.lastHashes[:0]
	for i := range res.Instances {
		inst := &res.Instances[i]
		desc := inst.Desc
		desc.Diffuse = r.resolve(inst.Diffuse)
		desc.Normal = r.resolve(inst.Normal)
		desc.Specular = r.resolve(inst.Specular)
		r.backend.SetInstance(r.instances[i], desc)
		r.lastHashes = append(r.lastHashes, inst.TextureHash)
	}

	r.lastLights = len(res.Lights)
	r.backend.SetLights(res.Lights)
	cam := res.Camera
	r.backend.SetViewPerspective(cam.View, cam.FovRadians, cam.Near, cam.Far)
	return r.draw(vsync)
}

func (r *renderer) draw(vsync bool) error {
	if err := r.backend.Draw(vsync); err != nil {
		return fmt.Errorf("failed to draw frame: %w", err)
	}
	return nil
}

// resolve maps a texture table reference to the backend texture uploaded for it so far. Zero binds the
// backend's blank texture.
func (r *renderer) resolve(ref frame.TextureRef) backend.TextureID {
	if !ref.Set {
		return 0
	}
	return r.textures.BackendTexture(ref.ID)
}

func (r *renderer) Stats() Stats {
	r.renderMu.Lock()
	defer r.renderMu.Unlock()
	return Stats{
		Seq:       r.lastSeq,
		Instances: len(r.instances),
		Lights:    r.lastLights,
		Frames:    r.pipeline.Frames(),
	}
}

func (r *renderer) TextureHashAt(i int) (texture.Hash, bool) {
	r.renderMu.Lock()
	defer r.renderMu.Unlock()
	if i < 0 || i >= len(r.lastHashes) {
		return 0, false
	}
	return r.lastHashes[i], true
}

func (r *renderer) Release() {
	r.renderMu.Lock()
	defer r.renderMu.Unlock()
	for _, id := range r.instances {
		r.backend.DestroyInstance(id)
	}
	r.instances = nil
	r.lastHashes = nil
	r.pipeline.Discard()
	r.meshes.Release()
	r.shaders.Release()
	r.textures.Release(r.backend)
}
