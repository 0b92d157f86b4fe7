// Command drift packs a set of mesh templates into one shared vertex
// buffer, animates every instance on the GPU, and draws the result. With
// -ref it instead runs a fixed number of frames headlessly against the
// window surface, dumps the animated positions, and compares them to a
// reference dump.
package main

import (
	"flag"
	"os"

	"github.com/driftgl/drift/engine"
	"github.com/driftgl/drift/engine/config"
	"github.com/driftgl/drift/engine/core"
	"github.com/driftgl/drift/engine/layout"
	"github.com/driftgl/drift/engine/mesh"
	"github.com/driftgl/drift/engine/renderer"
	"github.com/driftgl/drift/engine/scene"
	"github.com/driftgl/drift/engine/verify"
	"github.com/driftgl/drift/engine/window"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a TOML config file")
		refPath    = flag.String("ref", "", "reference position dump; runs verification mode and exits")
		deviceIdx  = flag.Int("device", 0, "adapter index; 0 is the platform default, any other value requests the software fallback adapter")
		frames     = flag.Int("frames", 0, "verification frame count override")
		verbose    = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	core.SetVerbose(*verbose)

	cfg, err := config.Load(*configPath)
	if err != nil {
		core.LogFatal("%v", err)
	}
	if *deviceIdx != 0 {
		cfg.Renderer.DeviceIndex = *deviceIdx
	}
	if *frames > 0 {
		cfg.Verify.Frames = *frames
	}

	l, err := buildLayout(cfg)
	if err != nil {
		core.LogFatal("layout build failed: %v", err)
	}
	core.LogInfo("packed %d instances, %d vertices, %d indices",
		len(l.Instances()), l.TotalVertices(), l.TotalIndices())

	win := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithWidth(cfg.Window.Width),
		window.WithHeight(cfg.Window.Height),
	)

	presentMode := renderer.PresentModeUncapped
	if cfg.Renderer.VSync {
		presentMode = renderer.PresentModeVSync
	}
	rend := renderer.NewRenderer(
		renderer.BackendTypeWGPU,
		win,
		renderer.WithPresentMode(presentMode),
		renderer.WithMSAA(renderer.MSAASampleCount(cfg.Renderer.MSAASamples)),
		renderer.WithForceSoftwareRenderer(cfg.Renderer.DeviceIndex != 0),
	)

	sc := scene.NewScene(rend, l,
		scene.WithTimeStep(cfg.Scene.TimeStep),
		scene.WithAspect(float32(cfg.Window.Width)/float32(cfg.Window.Height)),
	)
	if err := sc.Init(); err != nil {
		core.LogFatal("scene init failed: %v", err)
	}

	if *refPath != "" {
		code := runVerification(cfg, sc, *refPath)
		sc.Release()
		win.Close()
		os.Exit(code)
	}

	eng := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithProfiling(*verbose),
		engine.WithScene(0, sc),
	)
	eng.Run()
	sc.Release()
}

// runVerification advances the animation a fixed number of frames, reads
// the animated buffer back, writes the dump, and compares it against the
// reference. Returns the process exit code: 0 on match, 1 otherwise.
func runVerification(cfg config.Config, sc scene.Scene, refPath string) int {
	for i := 0; i < cfg.Verify.Frames; i++ {
		if err := sc.PrepareCompute(); err != nil {
			core.LogError("compute frame %d failed: %v", i, err)
			return 1
		}
	}

	positions, err := sc.ReadbackPositions()
	if err != nil {
		core.LogError("readback failed: %v", err)
		return 1
	}
	if err := verify.Dump(cfg.Verify.OutputPath, positions); err != nil {
		core.LogError("%v", err)
		return 1
	}
	core.LogInfo("dumped %d values to %s after %d frames",
		len(positions), cfg.Verify.OutputPath, cfg.Verify.Frames)

	reference, err := verify.LoadReference(refPath)
	if err != nil {
		core.LogError("%v", err)
		return 1
	}
	res, err := verify.Compare(positions, reference, verify.DefaultEpsilon)
	if err != nil {
		core.LogError("%v", err)
		return 1
	}
	if !res.Match(verify.DefaultThreshold) {
		core.LogError("verification FAILED: %d of %d elements mismatched (ratio %.4f, max error %.4f)",
			res.Mismatches, res.Total, res.Ratio(), res.MaxError)
		return 1
	}
	core.LogInfo("verification passed: %d of %d elements mismatched (ratio %.4f, max error %.4f)",
		res.Mismatches, res.Total, res.Ratio(), res.MaxError)
	return 0
}

// buildLayout packs the configured instance count into one layout. Mesh
// files from the config are round-robined across the instances; with no
// files configured every instance uses the built-in grid template.
func buildLayout(cfg config.Config) (*layout.Layout, error) {
	templates, err := loadTemplates(cfg.Scene.MeshPaths)
	if err != nil {
		return nil, err
	}

	opts := []layout.BuilderOption{
		layout.WithMappingCeiling(cfg.Scene.MaxMappings),
		layout.WithVelocityRange(cfg.Scene.VelocityMin, cfg.Scene.VelocityMax),
	}
	if cfg.Scene.Seed != 0 {
		opts = append(opts, layout.WithRandSeed(cfg.Scene.Seed))
	}

	b := layout.NewBuilder(opts...)
	per := cfg.Scene.InstanceCount / len(templates)
	rem := cfg.Scene.InstanceCount % len(templates)
	for i, tmpl := range templates {
		count := per
		if i < rem {
			count++
		}
		if count > 0 {
			b.Append(tmpl, count)
		}
	}
	return b.Build()
}

func loadTemplates(paths []string) ([]*mesh.Template, error) {
	if len(paths) == 0 {
		return []*mesh.Template{gridTemplate(8, 8, 1.0)}, nil
	}

	store := mesh.NewStore()
	templates := make([]*mesh.Template, 0, len(paths))
	for _, p := range paths {
		tmpl, err := store.Load(p)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}

// gridTemplate builds a flat triangulated grid on the XZ plane, centered
// at the origin, spanning size units per axis.
func gridTemplate(cols, rows int, size float32) *mesh.Template {
	positions := make([][3]float32, 0, (cols+1)*(rows+1))
	for r := 0; r <= rows; r++ {
		for c := 0; c <= cols; c++ {
			x := (float32(c)/float32(cols) - 0.5) * size
			z := (float32(r)/float32(rows) - 0.5) * size
			positions = append(positions, [3]float32{x, 0, z})
		}
	}

	indices := make([]uint32, 0, cols*rows*6)
	stride := uint32(cols + 1)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			tl := uint32(r)*stride + uint32(c)
			tr := tl + 1
			bl := tl + stride
			br := bl + 1
			indices = append(indices, tl, bl, tr, tr, bl, br)
		}
	}
	return mesh.NewTemplate(positions, indices)
}
