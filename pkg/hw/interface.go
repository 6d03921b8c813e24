package hw

// Drive is a differential drive that takes arcade-style commands.  Both
// inputs are in [-1, 1].
type Drive interface {
	ArcadeDrive(throttle, rotation float64) error
}

// SpeedController is a single-axis actuator such as a PWM motor controller.
type SpeedController interface {
	SetSpeed(speed float64) error
}

// Gyro reports cumulative rotation in degrees since the last Reset.
type Gyro interface {
	Angle() (float64, error)
	Reset() error
}

type LimitSwitch interface {
	IsClosed() (bool, error)
}

// Rumbler is the haptic sink on the driver's controller.  Intensities are in
// [0, 1].
type Rumbler interface {
	SetRumble(left, right float64) error
}

// Channel names one of the single-axis mechanisms.
type Channel int

const (
	ChannelCoil Channel = iota
	ChannelDump
	ChannelWinch
)

func (c Channel) String() string {
	switch c {
	case ChannelCoil:
		return "coil"
	case ChannelDump:
		return "dump"
	case ChannelWinch:
		return "winch"
	default:
		return "unknown"
	}
}

// SwitchID names one of the dump limit switches.
type SwitchID int

const (
	SwitchLower SwitchID = iota
	SwitchUpper
)

func (s SwitchID) String() string {
	switch s {
	case SwitchLower:
		return "lower"
	case SwitchUpper:
		return "upper"
	default:
		return "unknown"
	}
}

// MotionCommand is the datum sent to the drive each tick.
type MotionCommand struct {
	Translation float64
	Rotation    float64
}
