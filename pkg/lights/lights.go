// Package lights defines the LED strip capability used by the control
// routines to signal what the robot is doing.
package lights

import "github.com/hexapod-robotics/hexapod/internal/log"

// Handler drives the LED strip. Implementations must tolerate being
// called from the control task goroutine.
type Handler interface {
	// Think shows the busy animation.
	Think()
	// Listen shows the attentive animation.
	Listen()
	// Rainbow cycles the strip through the color wheel.
	Rainbow()
	// Police alternates red and blue flashes.
	Police()
	// SetBrightness sets strip brightness as a percentage (0-100).
	SetBrightness(percent int)
	// Off turns the strip off.
	Off()
}

// LogHandler is a Handler for builds without an LED strip attached. It
// logs each animation change at debug level.
type LogHandler struct{}

var _ Handler = (*LogHandler)(nil)

func (LogHandler) Think()  { log.Debug("lights: think") }
func (LogHandler) Listen() { log.Debug("lights: listen") }
func (LogHandler) Rainbow() {
	log.Debug("lights: rainbow")
}
func (LogHandler) Police() { log.Debug("lights: police") }
func (LogHandler) SetBrightness(percent int) {
	log.Debug("lights: brightness", "percent", percent)
}
func (LogHandler) Off() { log.Debug("lights: off") }
