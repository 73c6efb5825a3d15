package conf

import "time"

// Bootstrap is the root configuration of the SnakeKeeper process.
type Bootstrap struct {
	Game     *Game     `validate:"required"`
	Store    *Store    `validate:"required"`
	Marker   *Marker   `validate:"required"`
	Data     *Data     `validate:"required"`
	Notify   *Notify   `validate:"required"`
	Tasks    *Tasks    `validate:"required"`
	Schedule *Schedule `validate:"required"`
	Admin    *Admin    `validate:"required"`
	Log      *Log      `validate:"required"`
}

// Game describes the vendor endpoint and the fixed client identity sent with every message.
type Game struct {
	Endpoint     string        `validate:"required,url"`
	Host         string        `validate:"required"`
	UserAgent    string        `validate:"required"`
	UnityVersion string        `validate:"required"`
	Timeout      time.Duration `validate:"gt=0"`
	ProxyURL     string        `validate:"omitempty,url"`
	Profile      *Game_Profile `validate:"required"`
}

// Game_Profile holds the shared client parameters (platform, app version, bundle, device).
type Game_Profile struct {
	PfID             int    `validate:"gte=0"`
	Version          string `validate:"required"`
	BundleIdentifier string `validate:"required"`
	DeviceID         string `validate:"required"`
}

// Store locates the account file and the working directory for local state.
type Store struct {
	AccountsFile  string `validate:"required"`
	DataDir       string `validate:"required"`
	EncryptionKey string `validate:"omitempty,len=32"`
}

// Marker selects the circuit-breaker marker backend.
type Marker struct {
	Driver string `validate:"oneof=file redis mysql"`
}

// Data configures the optional shared backends.
type Data struct {
	Database *Data_Database `validate:"required"`
	Redis    *Data_Redis    `validate:"required"`
}

// Data_Database is the GORM (MySQL) connection.
type Data_Database struct {
	Driver string
	Source string
}

// Data_Redis is the go-redis connection.
type Data_Redis struct {
	Network      string
	Addr         string
	Password     string
	DB           int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Notify configures operator notifications.
type Notify struct {
	WebhookURL  string        `validate:"omitempty,url"`
	Timeout     time.Duration `validate:"gt=0"`
	TitlePrefix string
}

// Tasks configures pacing and knobs of the scripted game actions.
type Tasks struct {
	ActionInterval time.Duration `validate:"gte=0"`
	GachaInterval  time.Duration `validate:"gte=0"`
	GachaAttempts  int           `validate:"gte=1"`
	FreeBattleMode int
	FriendPageSize int `validate:"gte=1"`
	StateCacheSize int `validate:"gte=1"`
}

// Schedule holds cron specs (with seconds). Empty spec disables the job.
type Schedule struct {
	Daily   string
	Monitor string
}

// Admin configures the operator HTTP surface. Empty Addr disables it.
type Admin struct {
	Network string
	Addr    string
	Timeout time.Duration
	Token   string // Bearer token，为空时不校验
}

// Log configures the zap logger.
type Log struct {
	Level      string `validate:"required"`
	Format     string `validate:"oneof=json console"`
	Env        string
	OutputFile string
}
