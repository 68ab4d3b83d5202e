package forward

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/kbukum/framegraph/render"
)

// LightingModel carries the light toggles the draw passes select their
// pipelines by.
type LightingModel struct {
	Ambient          bool
	Directional      bool
	Point            bool
	Spot             bool
	Shadow           bool
	AmbientIntensity float32
	KeyLightDir      mgl32.Vec3
}

// Lit reports whether any light contributes.
func (m *LightingModel) Lit() bool {
	return m != nil && (m.Ambient || m.Directional || m.Point || m.Spot)
}

// LightingConfig toggles light types at runtime.
type LightingConfig struct {
	EnableAmbient     bool       `mapstructure:"enableAmbient"`
	EnableDirectional bool       `mapstructure:"enableDirectional"`
	EnablePoint       bool       `mapstructure:"enablePoint"`
	EnableSpot        bool       `mapstructure:"enableSpot"`
	EnableShadow      bool       `mapstructure:"enableShadow"`
	AmbientIntensity  float32    `mapstructure:"ambientIntensity" validate:"gte=0,lte=4"`
	KeyLightDir       [3]float32 `mapstructure:"keyLightDir"`
}

// MakeLightingModel produces the frame's LightingModel from its config.
type MakeLightingModel struct {
	cfg LightingConfig
}

var (
	_ render.OutputRunner[*LightingModel]  = (*MakeLightingModel)(nil)
	_ render.Configurable[LightingConfig] = (*MakeLightingModel)(nil)
	_ render.Defaulter[LightingConfig]    = (*MakeLightingModel)(nil)
)

func (j *MakeLightingModel) DefaultConfig() LightingConfig {
	return LightingConfig{
		EnableAmbient:     true,
		EnableDirectional: true,
		EnablePoint:       true,
		EnableSpot:        true,
		EnableShadow:      true,
		AmbientIntensity:  1,
		KeyLightDir:       [3]float32{0, -1, 0},
	}
}

func (j *MakeLightingModel) Configure(c LightingConfig) { j.cfg = c }

func (j *MakeLightingModel) Run(_ *render.Context, out **LightingModel) error {
	dir := mgl32.Vec3(j.cfg.KeyLightDir)
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	*out = &LightingModel{
		Ambient:          j.cfg.EnableAmbient,
		Directional:      j.cfg.EnableDirectional,
		Point:            j.cfg.EnablePoint,
		Spot:             j.cfg.EnableSpot,
		Shadow:           j.cfg.EnableShadow,
		AmbientIntensity: j.cfg.AmbientIntensity,
		KeyLightDir:      dir,
	}
	return nil
}
