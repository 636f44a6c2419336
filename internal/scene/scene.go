// Package scene describes the decorative hero model. The browser renders it;
// the server only decides geometry, materials and colours.
package scene

import (
	"math/rand"

	"github.com/MohammedGhazal09/portfolio/internal/theme"
)

// Palette is the set of accent colours the model is painted with.
type Palette struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Accent     string `json:"accent"`
	Background string `json:"background"`
}

// PaletteFor returns the palette matching a theme.
func PaletteFor(t theme.Theme) Palette {
	if t == theme.Dark {
		return Palette{Primary: "#60a5fa", Secondary: "#a78bfa", Accent: "#22d3ee", Background: "#0a0a0a"}
	}
	return Palette{Primary: "#3b82f6", Secondary: "#8b5cf6", Accent: "#06b6d4", Background: "#fafafa"}
}

type Vec3 [3]float64

// Material is either a plain standard material or a distorting one.
type Material struct {
	Type              string  `json:"type"`
	Color             string  `json:"color"`
	Emissive          string  `json:"emissive,omitempty"`
	EmissiveIntensity float64 `json:"emissiveIntensity,omitempty"`
	Metalness         float64 `json:"metalness"`
	Roughness         float64 `json:"roughness"`
	Distort           float64 `json:"distort,omitempty"`
	Speed             float64 `json:"speed,omitempty"`
}

// Float makes a node bob and spin on its own.
type Float struct {
	Speed             float64 `json:"speed"`
	RotationIntensity float64 `json:"rotationIntensity"`
	FloatIntensity    float64 `json:"floatIntensity"`
}

// Node is one element of the scene graph.
type Node struct {
	Name     string    `json:"name"`
	Geometry string    `json:"geometry,omitempty"`
	Args     []float64 `json:"args,omitempty"`
	Radius   float64   `json:"radius,omitempty"`
	Position Vec3      `json:"position"`
	Rotation Vec3      `json:"rotation"`
	Scale    float64   `json:"scale,omitempty"`
	Material *Material `json:"material,omitempty"`
	Float    *Float    `json:"float,omitempty"`
	Children []Node    `json:"children,omitempty"`
}

// Bob is the idle vertical oscillation of the whole model:
// y = Amplitude * sin(t * Frequency).
type Bob struct {
	Amplitude float64 `json:"amplitude"`
	Frequency float64 `json:"frequency"`
}

// Scene is everything the client needs to draw the hero model.
type Scene struct {
	Theme   theme.Theme `json:"theme"`
	Palette Palette     `json:"palette"`
	Root    Node        `json:"root"`
	Bob     Bob         `json:"bob"`
}

const codeLines = 5

// Build lays out the laptop model for a theme. The decorative code lines on
// the screen are jittered from seed, so equal seeds give equal scenes.
func Build(t theme.Theme, seed int64) Scene {
	p := PaletteFor(t)
	rng := rand.New(rand.NewSource(seed))

	shell := func(color string) *Material {
		return &Material{Type: "standard", Color: color, Metalness: 0.8, Roughness: 0.2}
	}

	lines := make([]Node, 0, codeLines)
	for i := 0; i < codeLines; i++ {
		color := p.Secondary
		if i%2 == 1 {
			color = p.Accent
		}
		lines = append(lines, Node{
			Name:     "code-line",
			Geometry: "box",
			Args:     []float64{0.8 + rng.Float64()*0.8, 0.06, 0.01},
			Position: Vec3{-0.8 + rng.Float64()*0.3, 0.5 - float64(i)*0.25, 0.08},
			Material: &Material{Type: "standard", Color: color, Emissive: color, EmissiveIntensity: 0.5},
		})
	}

	lid := Node{
		Name:     "lid",
		Position: Vec3{0, 1.1, -0.95},
		Rotation: Vec3{-0.3, 0, 0},
		Children: append([]Node{
			{Name: "frame", Geometry: "roundedBox", Args: []float64{3, 2, 0.1}, Radius: 0.05, Material: shell("#1a1a2e")},
			{
				Name: "display", Geometry: "roundedBox", Args: []float64{2.7, 1.7, 0.02}, Radius: 0.02,
				Position: Vec3{0, 0, 0.06},
				Material: &Material{
					Type: "distort", Color: p.Primary, Emissive: p.Primary, EmissiveIntensity: 0.3,
					Metalness: 0.1, Roughness: 0.1, Distort: 0.1, Speed: 2,
				},
			},
		}, lines...),
	}

	accent := func(name, geometry string, args []float64, pos Vec3, color string, m Material, f Float) Node {
		m.Type = "distort"
		m.Color = color
		m.Emissive = color
		return Node{Name: name, Geometry: geometry, Args: args, Position: pos, Material: &m, Float: &f}
	}

	root := Node{
		Name:     "laptop",
		Rotation: Vec3{0.1, -0.3, 0},
		Scale:    0.8,
		Children: []Node{
			{Name: "base", Geometry: "roundedBox", Args: []float64{3, 0.15, 2}, Radius: 0.05, Material: shell("#1a1a2e")},
			{
				Name: "keyboard", Geometry: "roundedBox", Args: []float64{2.6, 0.02, 1.4}, Radius: 0.02,
				Position: Vec3{0, 0.085, 0.2},
				Material: &Material{Type: "standard", Color: "#2d2d44", Metalness: 0.5, Roughness: 0.4},
			},
			{
				Name: "trackpad", Geometry: "roundedBox", Args: []float64{0.8, 0.01, 0.5}, Radius: 0.02,
				Position: Vec3{0, 0.09, 0.6},
				Material: &Material{Type: "standard", Color: "#3d3d5c", Metalness: 0.6, Roughness: 0.3},
			},
			lid,
			accent("icosahedron", "icosahedron", []float64{0.5, 0}, Vec3{2.8, 2, 0.5}, p.Accent,
				Material{Speed: 3, Distort: 0.2, Metalness: 0.8, Roughness: 0.1, EmissiveIntensity: 0.4},
				Float{Speed: 4, RotationIntensity: 0.5, FloatIntensity: 0.5}),
			accent("torus", "torus", []float64{0.25, 0.08, 16, 32}, Vec3{-2.5, 2.2, 0}, p.Secondary,
				Material{Speed: 2, Distort: 0.1, Metalness: 0.9, Roughness: 0.1, EmissiveIntensity: 0.3},
				Float{Speed: 3, RotationIntensity: 0.3, FloatIntensity: 0.8}),
			accent("octahedron", "octahedron", []float64{0.3, 0}, Vec3{1.8, 2.8, -0.5}, p.Primary,
				Material{Speed: 2.5, Distort: 0.15, Metalness: 0.7, Roughness: 0.2, EmissiveIntensity: 0.35},
				Float{Speed: 2.5, RotationIntensity: 0.4, FloatIntensity: 0.6}),
		},
	}

	return Scene{
		Theme:   t,
		Palette: p,
		Root:    root,
		Bob:     Bob{Amplitude: 0.1, Frequency: 0.5},
	}
}
