package config

import "time"

const (
	MaxSupportedMotors       = 4
	MaxSupportedRangeSensors = 4
	AppEnvBase               = "SHIBU_"

	DefaultVerbose        = false
	DefaultStatusInterval = 5 * time.Second
	DefaultNetDevice      = "wlan0"

	// Default Link Options
	DefaultLinkEnabled     = true
	DefaultSerialDevice    = "/dev/serial0"
	DefaultBaudRate        = 115200
	DefaultMaxLineLength   = 64
	DefaultAckToken        = "OK"
	DefaultLinkReadTimeout = 100 * time.Millisecond

	// Default Command Options
	DefaultCommandDriver    = "pca9685"
	DefaultAddress          = 0x60
	DefaultI2CDevice        = "/dev/i2c-1"
	DefaultForwardIsReverse = true
	DefaultInverted         = false
	DefaultPwmFrequency     = 1600

	// Default Compass Options
	DefaultCompassDriver  = "qmc5883l"
	DefaultCompassAddress = 0x0D
	DefaultDeclination    = 0.0
	DefaultOffsetX        = 0.0
	DefaultOffsetY        = 0.0

	// Default Range Options
	DefaultRangeEnabled     = false
	DefaultRangeBaseAddress = 0x30
	DefaultRangeBootDelay   = 10 * time.Millisecond
	DefaultRangeBudgetUs    = 50000

	// Default Display Options
	DefaultDisplayEnabled = false
	DefaultDisplayAddress = 0x3C
	DefaultFacesFile      = "27_human_emotions_oled_data.csv"

	// Default Tuning Options
	DefaultTick = 10 * time.Millisecond

	DefaultTurnKp        = 0.01
	DefaultTurnKd        = 0.02
	DefaultRateScale     = 10.0
	DefaultTurnMinSpeed  = 0.30
	DefaultTurnMaxSpeed  = 0.80
	DefaultDeadband      = 3
	DefaultSettleNeed    = 6
	DefaultRotateTimeout = 8 * time.Second

	DefaultMinSpeed    = 0.30
	DefaultCruiseSpeed = 0.70
	DefaultMaxSpeed    = 1.00
	DefaultAccel       = 600 * time.Millisecond
	DefaultDecel       = 400 * time.Millisecond
	DefaultYawKp       = 0.02
	DefaultYawKd       = 0.002

	DefaultBrakeBase     = 0.25
	DefaultBrakeGain     = 0.002
	DefaultBrakeMax      = 0.80
	DefaultBrakeMinTime  = 20 * time.Millisecond
	DefaultBrakeMaxTime  = 60 * time.Millisecond
	DefaultBrakeTimeGain = 0.1
)

// Default motor HAT pinout as (pwm, in1, in2) channel triples for M1..M4,
// in front-left, front-right, back-left, back-right order.
var DefaultMotorChannels = [MaxSupportedMotors][3]int{
	{8, 10, 9},
	{13, 11, 12},
	{2, 4, 3},
	{7, 5, 6},
}

// Default BCM pins for the GPIO H-bridge driver as (pwm, dirA, dirB).
var DefaultMotorPins = [MaxSupportedMotors][3]int{
	{12, 5, 6},
	{13, 20, 21},
	{12, 23, 24},
	{13, 16, 26},
}

var DefaultRangeShutdownPins = [MaxSupportedRangeSensors]int{17, 27, 22, 25}

type Config struct {
	Verbose        bool
	StatusInterval time.Duration
	NetDevice      string

	LinkCfg    LinkConfig
	CommandCfg CommandConfig
	CompassCfg CompassConfig
	RangeCfg   RangeConfig
	DisplayCfg DisplayConfig
	TuningCfg  TuningConfig
}

type LinkConfig struct {
	Enabled       bool
	Device        string
	BaudRate      int
	MaxLineLength int
	AckToken      string
	ReadTimeout   time.Duration
}

type CommandConfig struct {
	CommandDriver    string
	Address          byte
	I2CDevice        string
	Frequency        int
	ForwardIsReverse bool
	MotorCfgs        []MotorConfig
}

// MotorConfig describes one wheel channel. Channel fields are used by the
// pca9685 driver, pin fields by the pi_pwm driver.
type MotorConfig struct {
	Name       string
	Wheel      int
	Inverted   bool
	PwmChannel int
	In1Channel int
	In2Channel int
	PwmPin     int
	DirPinA    int
	DirPinB    int
}

type CompassConfig struct {
	CompassDriver string
	Address       byte
	I2CDevice     string
	Declination   float64
	OffsetX       float64
	OffsetY       float64
}

type RangeConfig struct {
	Enabled      bool
	I2CDevice    string
	BaseAddress  byte
	ShutdownPins []int
	BootDelay    time.Duration
	BudgetUs     int
}

type DisplayConfig struct {
	Enabled   bool
	Address   byte
	I2CDevice string
	FacesFile string
}

// TuningConfig holds every tunable of the heading controller. Speeds are
// normalized duty cycles in [0, 1].
type TuningConfig struct {
	Tick time.Duration `yaml:"tick"`

	TurnKp        float64       `yaml:"turn_kp"`
	TurnKd        float64       `yaml:"turn_kd"`
	RateScale     float64       `yaml:"rate_scale"`
	TurnMinSpeed  float64       `yaml:"turn_min_speed"`
	TurnMaxSpeed  float64       `yaml:"turn_max_speed"`
	Deadband      int           `yaml:"deadband"`
	SettleNeed    int           `yaml:"settle_need"`
	RotateTimeout time.Duration `yaml:"rotate_timeout"`

	MinSpeed    float64       `yaml:"min_speed"`
	CruiseSpeed float64       `yaml:"cruise_speed"`
	MaxSpeed    float64       `yaml:"max_speed"`
	Accel       time.Duration `yaml:"accel"`
	Decel       time.Duration `yaml:"decel"`
	YawKp       float64       `yaml:"yaw_kp"`
	YawKd       float64       `yaml:"yaw_kd"`

	// brake magnitude = BrakeBase + BrakeGain*|rate|, capped at BrakeMax.
	// brake time = BrakeMaxTime - BrakeTimeGain*|rate| ms, floored at BrakeMinTime.
	BrakeBase     float64       `yaml:"brake_base"`
	BrakeGain     float64       `yaml:"brake_gain"`
	BrakeMax      float64       `yaml:"brake_max"`
	BrakeMinTime  time.Duration `yaml:"brake_min_time"`
	BrakeMaxTime  time.Duration `yaml:"brake_max_time"`
	BrakeTimeGain float64       `yaml:"brake_time_gain"`
}
