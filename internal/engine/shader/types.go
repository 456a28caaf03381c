package shader

import "github.com/go-gl/gl/v4.1-core/gl"

var typeNames = map[uint32]string{
	gl.FLOAT:             "float",
	gl.FLOAT_VEC2:        "vec2",
	gl.FLOAT_VEC3:        "vec3",
	gl.FLOAT_VEC4:        "vec4",
	gl.INT:               "int",
	gl.INT_VEC2:          "ivec2",
	gl.INT_VEC3:          "ivec3",
	gl.INT_VEC4:          "ivec4",
	gl.UNSIGNED_INT:      "unsigned int",
	gl.UNSIGNED_INT_VEC2: "uvec2",
	gl.UNSIGNED_INT_VEC3: "uvec3",
	gl.UNSIGNED_INT_VEC4: "uvec4",
	gl.BOOL:              "bool",
	gl.BOOL_VEC2:         "bvec2",
	gl.BOOL_VEC3:         "bvec3",
	gl.BOOL_VEC4:         "bvec4",
	gl.FLOAT_MAT2:        "mat2",
	gl.FLOAT_MAT3:        "mat3",
	gl.FLOAT_MAT4:        "mat4",
	gl.SAMPLER_2D:        "sampler2D",
	gl.SAMPLER_3D:        "sampler3D",
	gl.SAMPLER_CUBE:      "samplerCube",
	gl.SAMPLER_2D_SHADOW: "sampler2DShadow",
}

// TypeName returns the GLSL spelling of a GL uniform type enum, or
// "unknown".
func TypeName(xtype uint32) string {
	if name, ok := typeNames[xtype]; ok {
		return name
	}
	return "unknown"
}
