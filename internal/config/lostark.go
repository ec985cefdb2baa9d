package config

import "time"

type Lostark struct {
	BaseURL        string        `env:"LOSTARK_API_BASE_URL" envDefault:"https://developer-lostark.game.onstove.com"`
	Token          string        `env:"LOSTARK_API_TOKEN,required" json:"-"`
	Timeout        time.Duration `env:"LOSTARK_API_TIMEOUT" envDefault:"8s"`
	LogRequests    bool          `env:"LOSTARK_API_LOG_REQUESTS" envDefault:"false"`
	LogFieldMaxLen int           `env:"LOSTARK_API_LOG_FIELD_MAX_LEN" envDefault:"2048"`
}
