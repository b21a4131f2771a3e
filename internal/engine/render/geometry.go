package render

import "github.com/Faultbox/orbitview/internal/engine/gpu"

// skyCube is a cube around the eye wound counter-clockwise seen from inside.
// The mirrored view turns those faces clockwise on screen.
var skyCube = []float32{
	// -Z
	-1, -1, -1, 1, -1, -1, 1, 1, -1,
	1, 1, -1, -1, 1, -1, -1, -1, -1,
	// +Z
	-1, -1, 1, 1, 1, 1, 1, -1, 1,
	1, 1, 1, -1, -1, 1, -1, 1, 1,
	// -X
	-1, 1, 1, -1, -1, -1, -1, 1, -1,
	-1, -1, -1, -1, 1, 1, -1, -1, 1,
	// +X
	1, 1, 1, 1, 1, -1, 1, -1, -1,
	1, -1, -1, 1, -1, 1, 1, 1, 1,
	// -Y
	-1, -1, -1, 1, -1, 1, 1, -1, -1,
	1, -1, 1, -1, -1, -1, -1, -1, 1,
	// +Y
	-1, 1, -1, 1, 1, -1, 1, 1, 1,
	1, 1, 1, -1, 1, 1, -1, 1, -1,
}

var skyLayout = gpu.Layout{
	Stride:     3,
	Attributes: []gpu.Attribute{{Location: 0, Components: 3}},
}

const skyVertices = 36

// billboardQuad faces -Z with its texture turned a half-turn.
// BillboardModel maps it upright and toward the camera.
var billboardQuad = []float32{
	0.5, 0.5, 0, 0, 0,
	-0.5, 0.5, 0, 1, 0,
	-0.5, -0.5, 0, 1, 1,
	-0.5, -0.5, 0, 1, 1,
	0.5, -0.5, 0, 0, 1,
	0.5, 0.5, 0, 0, 0,
}

var billboardLayout = gpu.Layout{
	Stride: 5,
	Attributes: []gpu.Attribute{
		{Location: 0, Components: 3, Offset: 0},
		{Location: 1, Components: 2, Offset: 3},
	},
}

const quadVertices = 6

// screenQuad covers clip space with two triangles.
var screenQuad = []float32{
	-1, -1, 1, -1, 1, 1,
	1, 1, -1, 1, -1, -1,
}

var screenLayout = gpu.Layout{
	Stride:     2,
	Attributes: []gpu.Attribute{{Location: 0, Components: 2}},
}
