package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

func GetConfig() Config {
	cfg := Config{
		Verbose:        GetBoolEnv("VERBOSE", DefaultVerbose),
		StatusInterval: GetDurationEnv("STATUSINTERVAL", DefaultStatusInterval),
		NetDevice:      GetStringEnv("NETDEVICE", DefaultNetDevice),

		LinkCfg:    GetLinkConfig(),
		CommandCfg: GetCommandConfig(),
		CompassCfg: GetCompassConfig(),
		RangeCfg:   GetRangeConfig(),
		DisplayCfg: GetDisplayConfig(),
		TuningCfg:  GetTuningConfig(),
	}

	tuningFile := GetStringEnv("TUNING_FILE", "")
	if tuningFile != "" {
		tuning, err := LoadTuningFile(tuningFile, cfg.TuningCfg)
		if err != nil {
			log.Printf("warning: tuning file not loaded - error: %s\n", err)
		} else {
			cfg.TuningCfg = tuning
		}
	}

	log.Printf("app Config: \n%+v\n", cfg)
	return cfg
}

func GetLinkConfig() LinkConfig {
	return LinkConfig{
		Enabled:       GetBoolEnv("LINKENABLED", DefaultLinkEnabled),
		Device:        GetStringEnv("SERIALDEVICE", DefaultSerialDevice),
		BaudRate:      GetIntEnv("BAUDRATE", DefaultBaudRate),
		MaxLineLength: GetIntEnv("MAXLINE", DefaultMaxLineLength),
		AckToken:      GetStringEnv("ACKTOKEN", DefaultAckToken),
		ReadTimeout:   GetDurationEnv("LINKREADTIMEOUT", DefaultLinkReadTimeout),
	}
}

func GetCommandConfig() CommandConfig {
	commandCfg := CommandConfig{
		CommandDriver:    strings.ToLower(GetStringEnv("MOTORDRIVER", DefaultCommandDriver)),
		Address:          byte(GetIntEnv("MOTORADDRESS", DefaultAddress)),
		I2CDevice:        GetStringEnv("I2CDEVICE", DefaultI2CDevice),
		Frequency:        GetIntEnv("PWMFREQUENCY", DefaultPwmFrequency),
		ForwardIsReverse: GetBoolEnv("FORWARDISREVERSE", DefaultForwardIsReverse),
		MotorCfgs:        make([]MotorConfig, 0, MaxSupportedMotors),
	}

	names := [MaxSupportedMotors]string{"front_left", "front_right", "back_left", "back_right"}
	for i := 0; i < MaxSupportedMotors; i++ {
		envPrefix := fmt.Sprintf("MOTOR%d_", i)
		motorCfg := MotorConfig{
			Name:       GetStringEnv(envPrefix+"NAME", names[i]),
			Wheel:      i,
			Inverted:   GetBoolEnv(envPrefix+"INVERTED", DefaultInverted),
			PwmChannel: GetIntEnv(envPrefix+"PWMCHANNEL", DefaultMotorChannels[i][0]),
			In1Channel: GetIntEnv(envPrefix+"IN1CHANNEL", DefaultMotorChannels[i][1]),
			In2Channel: GetIntEnv(envPrefix+"IN2CHANNEL", DefaultMotorChannels[i][2]),
			PwmPin:     GetIntEnv(envPrefix+"PWMPIN", DefaultMotorPins[i][0]),
			DirPinA:    GetIntEnv(envPrefix+"DIRPINA", DefaultMotorPins[i][1]),
			DirPinB:    GetIntEnv(envPrefix+"DIRPINB", DefaultMotorPins[i][2]),
		}
		commandCfg.MotorCfgs = append(commandCfg.MotorCfgs, motorCfg)
	}
	return commandCfg
}

func GetCompassConfig() CompassConfig {
	return CompassConfig{
		CompassDriver: strings.ToLower(GetStringEnv("COMPASSDRIVER", DefaultCompassDriver)),
		Address:       byte(GetIntEnv("COMPASSADDRESS", DefaultCompassAddress)),
		I2CDevice:     GetStringEnv("I2CDEVICE", DefaultI2CDevice),
		Declination:   GetFloatEnv("DECLINATION", DefaultDeclination),
		OffsetX:       GetFloatEnv("COMPASS_OFFSETX", DefaultOffsetX),
		OffsetY:       GetFloatEnv("COMPASS_OFFSETY", DefaultOffsetY),
	}
}

func GetRangeConfig() RangeConfig {
	rangeCfg := RangeConfig{
		Enabled:      GetBoolEnv("RANGEENABLED", DefaultRangeEnabled),
		I2CDevice:    GetStringEnv("I2CDEVICE", DefaultI2CDevice),
		BaseAddress:  byte(GetIntEnv("RANGEBASEADDRESS", DefaultRangeBaseAddress)),
		BootDelay:    GetDurationEnv("RANGEBOOTDELAY", DefaultRangeBootDelay),
		BudgetUs:     GetIntEnv("RANGEBUDGET", DefaultRangeBudgetUs),
		ShutdownPins: make([]int, 0, MaxSupportedRangeSensors),
	}

	for i := 0; i < MaxSupportedRangeSensors; i++ {
		pin := GetIntEnv(fmt.Sprintf("RANGE%d_XSHUT", i), DefaultRangeShutdownPins[i])
		if pin < 0 {
			continue
		}
		rangeCfg.ShutdownPins = append(rangeCfg.ShutdownPins, pin)
	}
	return rangeCfg
}

func GetDisplayConfig() DisplayConfig {
	return DisplayConfig{
		Enabled:   GetBoolEnv("DISPLAYENABLED", DefaultDisplayEnabled),
		Address:   byte(GetIntEnv("DISPLAYADDRESS", DefaultDisplayAddress)),
		I2CDevice: GetStringEnv("I2CDEVICE", DefaultI2CDevice),
		FacesFile: GetStringEnv("FACESFILE", DefaultFacesFile),
	}
}

func GetTuningConfig() TuningConfig {
	envPrefix := "TUNE_"
	return TuningConfig{
		Tick: GetDurationEnv(envPrefix+"TICK", DefaultTick),

		TurnKp:        GetFloatEnv(envPrefix+"TURN_KP", DefaultTurnKp),
		TurnKd:        GetFloatEnv(envPrefix+"TURN_KD", DefaultTurnKd),
		RateScale:     GetFloatEnv(envPrefix+"RATE_SCALE", DefaultRateScale),
		TurnMinSpeed:  GetFloatEnv(envPrefix+"TURN_MIN", DefaultTurnMinSpeed),
		TurnMaxSpeed:  GetFloatEnv(envPrefix+"TURN_MAX", DefaultTurnMaxSpeed),
		Deadband:      GetIntEnv(envPrefix+"DEADBAND", DefaultDeadband),
		SettleNeed:    GetIntEnv(envPrefix+"SETTLE", DefaultSettleNeed),
		RotateTimeout: GetDurationEnv(envPrefix+"ROTATE_TIMEOUT", DefaultRotateTimeout),

		MinSpeed:    GetFloatEnv(envPrefix+"MIN_SPEED", DefaultMinSpeed),
		CruiseSpeed: GetFloatEnv(envPrefix+"CRUISE_SPEED", DefaultCruiseSpeed),
		MaxSpeed:    GetFloatEnv(envPrefix+"MAX_SPEED", DefaultMaxSpeed),
		Accel:       GetDurationEnv(envPrefix+"ACCEL", DefaultAccel),
		Decel:       GetDurationEnv(envPrefix+"DECEL", DefaultDecel),
		YawKp:       GetFloatEnv(envPrefix+"YAW_KP", DefaultYawKp),
		YawKd:       GetFloatEnv(envPrefix+"YAW_KD", DefaultYawKd),

		BrakeBase:     GetFloatEnv(envPrefix+"BRAKE_BASE", DefaultBrakeBase),
		BrakeGain:     GetFloatEnv(envPrefix+"BRAKE_GAIN", DefaultBrakeGain),
		BrakeMax:      GetFloatEnv(envPrefix+"BRAKE_MAX", DefaultBrakeMax),
		BrakeMinTime:  GetDurationEnv(envPrefix+"BRAKE_MIN_TIME", DefaultBrakeMinTime),
		BrakeMaxTime:  GetDurationEnv(envPrefix+"BRAKE_MAX_TIME", DefaultBrakeMaxTime),
		BrakeTimeGain: GetFloatEnv(envPrefix+"BRAKE_TIME_GAIN", DefaultBrakeTimeGain),
	}
}

// DefaultTuning returns the built in tunables without looking at the environment.
func DefaultTuning() TuningConfig {
	return TuningConfig{
		Tick: DefaultTick,

		TurnKp:        DefaultTurnKp,
		TurnKd:        DefaultTurnKd,
		RateScale:     DefaultRateScale,
		TurnMinSpeed:  DefaultTurnMinSpeed,
		TurnMaxSpeed:  DefaultTurnMaxSpeed,
		Deadband:      DefaultDeadband,
		SettleNeed:    DefaultSettleNeed,
		RotateTimeout: DefaultRotateTimeout,

		MinSpeed:    DefaultMinSpeed,
		CruiseSpeed: DefaultCruiseSpeed,
		MaxSpeed:    DefaultMaxSpeed,
		Accel:       DefaultAccel,
		Decel:       DefaultDecel,
		YawKp:       DefaultYawKp,
		YawKd:       DefaultYawKd,

		BrakeBase:     DefaultBrakeBase,
		BrakeGain:     DefaultBrakeGain,
		BrakeMax:      DefaultBrakeMax,
		BrakeMinTime:  DefaultBrakeMinTime,
		BrakeMaxTime:  DefaultBrakeMaxTime,
		BrakeTimeGain: DefaultBrakeTimeGain,
	}
}

func GetIntEnv(env string, defaultValue int) int {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	} else {
		value, err := strconv.ParseInt(strings.Trim(envValue, "\r"), 0, 32)
		if err != nil {
			log.Printf("warning:%s not parsed - error: %s\n", env, err)
			return defaultValue
		} else {
			return int(value)
		}
	}
}

func GetBoolEnv(env string, defaultValue bool) bool {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	} else {
		value, err := strconv.ParseBool(strings.Trim(envValue, "\r"))
		if err != nil {
			log.Printf("warning:%s not parsed - error: %s\n", env, err)
			return defaultValue
		} else {
			return value
		}
	}
}

// GetStringEnv keeps the case of the value since device paths are case sensitive.
func GetStringEnv(env string, defaultValue string) string {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	} else {
		return strings.Trim(envValue, "\r")
	}
}

func GetFloatEnv(env string, defaultValue float64) float64 {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	} else {
		value, err := strconv.ParseFloat(strings.Trim(envValue, "\r"), 64)
		if err != nil {
			log.Printf("warning:%s not parsed - error: %s\n", env, err)
			return defaultValue
		}
		return value
	}
}

// GetDurationEnv accepts a Go duration string ("10ms") or a bare number of milliseconds.
func GetDurationEnv(env string, defaultValue time.Duration) time.Duration {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	}

	envValue = strings.Trim(envValue, "\r")
	if ms, err := strconv.ParseInt(envValue, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}

	value, err := time.ParseDuration(envValue)
	if err != nil {
		log.Printf("warning:%s not parsed - error: %s\n", env, err)
		return defaultValue
	}
	return value
}
