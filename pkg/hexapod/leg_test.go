package hexapod

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"
)

// ikTolerance absorbs the trig round trip through degrees.
const ikTolerance = 1e-6

func testLegParams() (coxa, femur, tibia JointParams) {
	coxa = JointParams{Channel: 0, Length: 30, AngleMin: -45, AngleMax: 45, ServoMin: 3968, ServoMax: 8000}
	femur = JointParams{Channel: 1, Length: 100, AngleMin: -60, AngleMax: 90, ServoMin: 3968, ServoMax: 8000}
	tibia = JointParams{Channel: 2, Length: 150, AngleMin: -165, AngleMax: -15, ServoMin: 3968, ServoMax: 8000}
	return
}

func newTestLeg(ctrl ServoController, offset r3.Vector) *Leg {
	coxa, femur, tibia := testLegParams()
	return NewLeg(ctrl, 0, coxa, femur, tibia, offset, MountPose{})
}

func vecEquals(a, b r3.Vector, tol float64) bool {
	return math.Abs(a.X-b.X) < tol && math.Abs(a.Y-b.Y) < tol && math.Abs(a.Z-b.Z) < tol
}

func TestForwardKinematicsKnownPose(t *testing.T) {
	l := newTestLeg(nil, r3.Vector{})

	// Femur level, tibia straight down.
	got := l.ForwardKinematics(LegAngles{Coxa: 0, Femur: 0, Tibia: -90})
	want := r3.Vector{X: 130, Y: 0, Z: -150}
	if !vecEquals(got, want, ikTolerance) {
		t.Errorf("FK(0, 0, -90) = %+v, want %+v", got, want)
	}

	// Rotating the coxa sweeps the same radial pose around Z.
	got = l.ForwardKinematics(LegAngles{Coxa: 90, Femur: 0, Tibia: -90})
	want = r3.Vector{X: 0, Y: 130, Z: -150}
	if !vecEquals(got, want, ikTolerance) {
		t.Errorf("FK(90, 0, -90) = %+v, want %+v", got, want)
	}
}

func TestInverseKinematicsKnownPose(t *testing.T) {
	l := newTestLeg(nil, r3.Vector{})

	got, err := l.InverseKinematics(r3.Vector{X: 130, Y: 0, Z: -150})
	if err != nil {
		t.Fatal(err)
	}
	want := LegAngles{Coxa: 0, Femur: 0, Tibia: -90}
	if math.Abs(got.Coxa-want.Coxa) > ikTolerance ||
		math.Abs(got.Femur-want.Femur) > ikTolerance ||
		math.Abs(got.Tibia-want.Tibia) > ikTolerance {
		t.Errorf("IK = %+v, want %+v", got, want)
	}
}

func TestInverseForwardRoundTrip(t *testing.T) {
	l := newTestLeg(nil, r3.Vector{})

	for _, coxa := range []float64{-40, -15, 0, 15, 40} {
		for _, femur := range []float64{-50, -20, 0, 20, 45, 80} {
			for _, tibia := range []float64{-160, -120, -90, -45, -20} {
				// Poses folding the foot behind the coxa axis leave the
				// single-solution IK domain.
				radial := 30 + 100*math.Cos(radians(femur)) + 150*math.Cos(radians(femur+tibia))
				if radial < 10 {
					continue
				}
				in := LegAngles{Coxa: coxa, Femur: femur, Tibia: tibia}
				foot := l.ForwardKinematics(in)
				out, err := l.InverseKinematics(foot)
				if err != nil {
					t.Fatalf("IK(FK(%+v)) failed: %v", in, err)
				}
				if math.Abs(out.Coxa-in.Coxa) > ikTolerance ||
					math.Abs(out.Femur-in.Femur) > ikTolerance ||
					math.Abs(out.Tibia-in.Tibia) > ikTolerance {
					t.Errorf("round trip %+v -> %+v", in, out)
				}
			}
		}
	}
}

func TestReachabilityOuterBoundary(t *testing.T) {
	l := newTestLeg(nil, r3.Vector{})

	// Fully extended along X: femur + tibia = 250 from the coxa tip.
	angles, err := l.InverseKinematics(r3.Vector{X: 280, Y: 0, Z: 0})
	if err != nil {
		t.Fatalf("boundary target unreachable: %v", err)
	}
	if math.Abs(angles.Femur) > ikTolerance || math.Abs(angles.Tibia) > ikTolerance {
		t.Errorf("fully extended pose = %+v, want femur 0 tibia 0", angles)
	}

	// A hair past the boundary must fail rather than clamp.
	_, err = l.InverseKinematics(r3.Vector{X: 280.001, Y: 0, Z: 0})
	if err == nil {
		t.Fatal("target past reach succeeded, want UnreachableError")
	}
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("error = %v, want ErrUnreachable", err)
	}
	var ur *UnreachableError
	if !errors.As(err, &ur) {
		t.Fatalf("error type = %T", err)
	}
	if ur.MaxReach != 250 || ur.MinReach != 50 {
		t.Errorf("reach bounds = %+v", ur)
	}
}

func TestReachabilityInnerBoundary(t *testing.T) {
	l := newTestLeg(nil, r3.Vector{})

	// Fully folded: |femur - tibia| = 50 from the coxa tip.
	if _, err := l.InverseKinematics(r3.Vector{X: 80, Y: 0, Z: 0}); err != nil {
		t.Fatalf("inner boundary unreachable: %v", err)
	}
	if _, err := l.InverseKinematics(r3.Vector{X: 79.9, Y: 0, Z: 0}); err == nil {
		t.Fatal("target inside the fold succeeded, want UnreachableError")
	}
}

func TestInverseKinematicsEndEffectorOffset(t *testing.T) {
	offset := r3.Vector{X: 5, Y: 0, Z: -10}
	plain := newTestLeg(nil, r3.Vector{})
	shifted := newTestLeg(nil, offset)

	target := r3.Vector{X: 120, Y: 20, Z: -140}

	a, err := plain.InverseKinematics(target.Add(offset))
	if err != nil {
		t.Fatal(err)
	}
	b, err := shifted.InverseKinematics(target)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(a.Coxa-b.Coxa) > ikTolerance ||
		math.Abs(a.Femur-b.Femur) > ikTolerance ||
		math.Abs(a.Tibia-b.Tibia) > ikTolerance {
		t.Errorf("offset IK = %+v, want %+v", b, a)
	}

	// FK undoes the same shift.
	foot := shifted.ForwardKinematics(b)
	if !vecEquals(foot, target, ikTolerance) {
		t.Errorf("offset FK = %+v, want %+v", foot, target)
	}
}

func TestMoveToAnglesValidatesBeforeCommanding(t *testing.T) {
	mock := &mockController{}
	l := newTestLeg(mock, r3.Vector{})

	// Tibia out of range: nothing at all may reach the transport, even
	// though coxa and femur are valid.
	err := l.MoveToAngles(LegAngles{Coxa: 0, Femur: 0, Tibia: -10})
	if err == nil {
		t.Fatal("MoveToAngles succeeded, want out of range")
	}
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("error = %v, want ErrOutOfRange", err)
	}
	if n := mock.commandCount(); n != 0 {
		t.Errorf("failed MoveToAngles issued %d commands, want 0", n)
	}
}

func TestMoveToUnreachableSendsNothing(t *testing.T) {
	mock := &mockController{}
	l := newTestLeg(mock, r3.Vector{})

	if _, err := l.MoveTo(r3.Vector{X: 500, Y: 0, Z: 0}); err == nil {
		t.Fatal("MoveTo succeeded, want UnreachableError")
	}
	if n := mock.commandCount(); n != 0 {
		t.Errorf("failed MoveTo issued %d commands, want 0", n)
	}
}
