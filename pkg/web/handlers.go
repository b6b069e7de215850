package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/hexapod-robotics/hexapod/pkg/control"
	"github.com/hexapod-robotics/hexapod/pkg/hub"
)

// LegStatus is one leg's pose in the status payload.
type LegStatus struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Coxa  float64 `json:"coxa"`
	Femur float64 `json:"femur"`
	Tibia float64 `json:"tibia"`
}

// Status is the telemetry payload shared by /api/status and /ws/state.
type Status struct {
	State string      `json:"state"`
	Task  string      `json:"task,omitempty"`
	Legs  []LegStatus `json:"legs"`
}

// IntentInfo describes one intent for the dashboard.
type IntentInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var availableIntents = []IntentInfo{
	{Name: control.IntentWakeUp, Description: "Stand up from the folded stance"},
	{Name: control.IntentIdleStance, Description: "Return to the upright ready stance"},
	{Name: control.IntentMove, Description: "Walk (direction: forward, backward, left, right)"},
	{Name: control.IntentRotate, Description: "Turn in place (direction: left, right)"},
	{Name: control.IntentMarch, Description: "March in place"},
	{Name: control.IntentSayHello, Description: "Wave the front leg"},
	{Name: control.IntentDance, Description: "Dance"},
	{Name: control.IntentShowOff, Description: "Run the body-pose repertoire"},
	{Name: control.IntentHelix, Description: "Twist side to side"},
	{Name: control.IntentSleep, Description: "Fold down and dim the lights"},
	{Name: control.IntentStop, Description: "Stop everything and release the servos"},
}

func (s *Server) status() Status {
	feet := s.hex.CurrentLegPositions()
	angles := s.hex.CurrentLegAngles()

	legs := make([]LegStatus, len(feet))
	for i := range feet {
		legs[i] = LegStatus{
			X:     feet[i].X,
			Y:     feet[i].Y,
			Z:     feet[i].Z,
			Coxa:  angles[i].Coxa,
			Femur: angles[i].Femur,
			Tibia: angles[i].Tibia,
		}
	}
	return Status{
		State: s.dispatcher.State().String(),
		Task:  s.dispatcher.ActiveTask(),
		Legs:  legs,
	}
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.status())
}

func (s *Server) handleListIntents(c *fiber.Ctx) error {
	return c.JSON(availableIntents)
}

func (s *Server) handleIntent(c *fiber.Ctx) error {
	name := c.Params("name")
	direction := c.Query("direction")

	task, err := s.dispatcher.Dispatch(name, direction)
	if err != nil {
		status := fiber.StatusBadRequest
		if errors.Is(err, control.ErrNotAdmissible) {
			status = fiber.StatusConflict
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"intent": name,
		"task":   task.ID().String(),
		"state":  s.dispatcher.State().String(),
	})
}

// BodyPoseRequest is a manual body-pose command: translation in mm,
// rotation in degrees.
type BodyPoseRequest struct {
	TX    float64 `json:"tx"`
	TY    float64 `json:"ty"`
	TZ    float64 `json:"tz"`
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

func (s *Server) handleBodyPose(c *fiber.Ctx) error {
	var req BodyPoseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if s.dispatcher.State() != control.StateIdle {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "robot is busy"})
	}
	if err := s.hex.MoveBody(req.TX, req.TY, req.TZ, req.Roll, req.Pitch, req.Yaw); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(s.status())
}

// handleStateWS streams telemetry to a dashboard client.
func (s *Server) handleStateWS(c *websocket.Conn) {
	c.WriteJSON(s.status())
	client := hub.NewClient(s.stateHub, c)
	client.Run()
}
