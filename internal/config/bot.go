package config

type Bot struct {
	Token string `env:"BOT_TOKEN,required" json:"-"`
}
