package main

import (
	"math"

	"github.com/Carmen-Shannon/oxy-rt/engine/light"
	"github.com/Carmen-Shannon/oxy-rt/engine/mods"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// Combiner programs used by the demo. programColor reads one vertex color; programTextured samples tile 0
// and is fogged.
const (
	programColor    uint32 = 1
	programTextured        = 5 | shader.OptFog
)

// Display lists, one per object, so interpolation matches objects across ticks.
const (
	listBackground uint32 = iota + 1
	listFloor
	listCube
	listRibbon
)

const lampNode mods.NodeID = 1

// demoScene draws a background gradient, a textured floor, a spinning cube lit by a lamp node and a ribbon
// whose vertices change every tick.
type demoScene struct {
	time     float32
	angle    float32
	checker  uint32
	uploaded bool

	background []float32
	floor      []float32
	cube       []float32
	ribbon     []float32
}

func newDemoScene() *demoScene {
	s := &demoScene{}
	s.background = appendColorQuad(nil,
		[4]mgl32.Vec3{{-1, -1, 0.999}, {1, -1, 0.999}, {1, 1, 0.999}, {-1, 1, 0.999}},
		[4]mgl32.Vec3{{0.05, 0.05, 0.1}, {0.05, 0.05, 0.1}, {0.3, 0.4, 0.7}, {0.3, 0.4, 0.7}})
	s.floor = appendTexturedQuad(nil,
		[4]mgl32.Vec3{{-20, 0, -20}, {20, 0, -20}, {20, 0, 20}, {-20, 0, 20}},
		mgl32.Vec3{0, 1, 0}, 8)
	s.cube = cubeVertices()
	return s
}

// Update advances the scene by one simulation tick.
func (s *demoScene) Update(dt float32) {
	s.time += dt
	s.angle += dt * 0.8
}

// Draw records the scene into r.
func (s *demoScene) Draw(r renderer.Renderer) {
	if !s.uploaded {
		s.setup(r)
	}
	r.SetLevel(0, 0)
	r.SetViewport(0, 0, 1280, 720)
	r.SetScissor(0, 0, 1280, 720)
	r.SetFog(140, 160, 200, 128, 0)

	view := mgl32.LookAtV(mgl32.Vec3{0, 6, 14}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 1, 0})
	r.SetCameraPerspective(45, 1, 1000)
	r.SetCameraMatrix(view)

	r.SetDisplayList(listBackground)
	r.SelectProgram(programColor)
	must(r.DrawTrianglesOrtho(s.background, 2, false))

	r.SetDisplayList(listFloor)
	r.SelectProgram(programTextured)
	r.SelectTexture(0, s.checker)
	must(r.DrawTrianglesPersp(s.floor, 2, mgl32.Ident4(), false))

	model := mgl32.Translate3D(0, 1.5, 0).Mul4(mgl32.HomogRotate3DY(s.angle)).Mul4(mgl32.HomogRotate3DX(s.angle * 0.5))
	r.SetGraphNodeMod(r.BuildGraphNodeMod(lampNode, view.Mul4(mgl32.Translate3D(0, 4, 0))))
	r.SetDisplayList(listCube)
	r.SelectProgram(programColor)
	must(r.DrawTrianglesPersp(s.cube, 12, model, false))
	r.SetGraphNodeMod(nil)

	s.ribbon = ribbonVertices(s.ribbon[:0], s.time)
	r.SetDisplayList(listRibbon)
	must(r.DrawTrianglesPersp(s.ribbon, len(s.ribbon)/30, mgl32.Translate3D(-6, 0.5, -3), true))
}

// setup creates the demo texture and the lamp layout mod.
func (s *demoScene) setup(r renderer.Renderer) {
	s.uploaded = true
	s.checker = r.NewTexture("demo/checker")
	r.SelectTexture(0, s.checker)
	r.SetSamplerParams(0, false, 0, 0)
	r.UploadTexture(checkerPixels(8), 8, 8)

	store := r.Mods()
	if _, ok := store.LayoutMod("lamp"); !ok {
		lamp := mods.New()
		lamp.Light = &light.Light{
			AttenuationRadius:   12,
			PointRadius:         0.5,
			DiffuseColor:        mgl32.Vec3{1, 0.8, 0.5},
			SpecularColor:       mgl32.Vec3{1, 0.8, 0.5},
			AttenuationExponent: 1,
			GroupBits:           light.GroupDefault,
		}
		lamp.Material = &material.Material{Enabled: material.AttributeSpecularExponent, SpecularExponent: 24}
		store.SetLayoutMod("lamp", lamp)
	}
	r.RegisterLayoutGraphNode("lamp", lampNode)
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// appendColorQuad appends two triangles in the one-color-input layout.
func appendColorQuad(dst []float32, p [4]mgl32.Vec3, c [4]mgl32.Vec3) []float32 {
	for _, i := range [6]int{0, 1, 2, 0, 2, 3} {
		dst = append(dst, p[i].X(), p[i].Y(), p[i].Z(), 1, 0, 0, 1, c[i].X(), c[i].Y(), c[i].Z())
	}
	return dst
}

// appendTexturedQuad appends two triangles in the textured layout, tiling the texture repeat times.
func appendTexturedQuad(dst []float32, p [4]mgl32.Vec3, n mgl32.Vec3, repeat float32) []float32 {
	uv := [4][2]float32{{0, 0}, {repeat, 0}, {repeat, repeat}, {0, repeat}}
	for _, i := range [6]int{0, 1, 2, 0, 2, 3} {
		dst = append(dst, p[i].X(), p[i].Y(), p[i].Z(), 1, n.X(), n.Y(), n.Z(), uv[i][0], uv[i][1])
	}
	return dst
}

func cubeVertices() []float32 {
	faces := []struct {
		n     mgl32.Vec3
		u, v  mgl32.Vec3
		color mgl32.Vec3
	}{
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0.9, 0.2, 0.2}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0.2, 0.9, 0.2}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0.2, 0.2, 0.9}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0.9, 0.9, 0.2}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0.2, 0.9, 0.9}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0.9, 0.2, 0.9}},
	}
	var out []float32
	for _, f := range faces {
		var p, c [4]mgl32.Vec3
		for i, s := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			p[i] = f.n.Add(f.u.Mul(s[0])).Add(f.v.Mul(s[1]))
			c[i] = f.color
		}
		start := len(out)
		out = appendColorQuad(out, p, c)
		for j := start; j < len(out); j += 10 {
			out[j+4], out[j+5], out[j+6] = f.n.X(), f.n.Y(), f.n.Z()
		}
	}
	return out
}

// ribbonVertices rebuilds a waving strip of quads for time t.
func ribbonVertices(dst []float32, t float32) []float32 {
	const segments = 16
	for i := range segments {
		x0, x1 := float32(i)*0.75, float32(i+1)*0.75
		y0 := float32(math.Sin(float64(x0+t*2))) * 0.5
		y1 := float32(math.Sin(float64(x1+t*2))) * 0.5
		shade := float32(i) / segments
		c := mgl32.Vec3{0.3 + shade*0.7, 0.3, 1 - shade*0.7}
		dst = appendColorQuad(dst,
			[4]mgl32.Vec3{{x0, y0, 0}, {x1, y1, 0}, {x1, y1 + 1, 0}, {x0, y0 + 1, 0}},
			[4]mgl32.Vec3{c, c, c, c})
	}
	return dst
}

func checkerPixels(size int) []byte {
	px := make([]byte, 0, size*size*4)
	for y := range size {
		for x := range size {
			v := byte(90)
			if (x+y)%2 == 0 {
				v = 220
			}
			px = append(px, v, v, v, 255)
		}
	}
	return px
}
