package generators

import (
	"math/rand/v2"
)

// SamplingMethods are the sampler labels understood by Stable Diffusion web UIs
var SamplingMethods = []string{
	"DPM++ 2M", "DPM++ SDE", "DPM++ 2M SDE", "DPM++ 2M SDE Heun",
	"DPM++ 2S a", "DPM++ 3M SDE", "Euler a", "Euler", "LMS", "Heun",
	"DPM2", "DPM2 a", "DPM fast", "DPM adaptive", "Restart", "DDIM",
	"DDIM CFG++", "PLMS", "UniPC",
}

// Schedulers are the noise schedule labels understood by Stable Diffusion web UIs
var Schedulers = []string{
	"Automatic", "Uniform", "Karras", "Exponential", "Polyexponential",
	"SGM Uniform", "KL Optimal", "Align Your Steps", "Simple",
	"Normal", "DDIM", "Beta",
}

// SamplerSettings is one randomly chosen sampler/scheduler pair
type SamplerSettings struct {
	SamplingMethod string `json:"sampling_method"`
	Scheduler      string `json:"scheduler"`
}

// SamplerPicker draws sampler settings uniformly at random.
type SamplerPicker struct {
	intN func(n int) int
}

func NewSamplerPicker() *SamplerPicker {
	return &SamplerPicker{intN: rand.IntN}
}

// NewSeededSamplerPicker returns a deterministic picker
func NewSeededSamplerPicker(seed uint64) *SamplerPicker {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return &SamplerPicker{intN: r.IntN}
}

// Pick chooses the sampling method and scheduler independently
func (p *SamplerPicker) Pick() SamplerSettings {
	return SamplerSettings{
		SamplingMethod: SamplingMethods[p.intN(len(SamplingMethods))],
		Scheduler:      Schedulers[p.intN(len(Schedulers))],
	}
}

// IsSamplingMethod reports whether name is a known sampling method
func IsSamplingMethod(name string) bool {
	return contains(SamplingMethods, name)
}

// IsScheduler reports whether name is a known scheduler
func IsScheduler(name string) bool {
	return contains(Schedulers, name)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
