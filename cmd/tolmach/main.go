// Tolmach - приложение в системном трее для голосового перевода.
//
// Записывает голос с микрофона по горячей клавише и отправляет запись
// с выбранным языком на веб-сервис перевода.
package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"tolmach/internal/app"
	"tolmach/internal/hotkey"
	"tolmach/internal/logging"
)

// Version устанавливается при сборке через -ldflags.
var Version = "dev"

type cli struct {
	Config   string           `help:"Путь к config.json (по умолчанию рядом с бинарником)." type:"path" env:"TOLMACH_CONFIG"`
	Server   string           `help:"Адрес формы перевода." placeholder:"URL"`
	DB       string           `name:"db" help:"Путь к базе недавних языков." type:"path"`
	Hotkey   string           `help:"Горячая клавиша записи, например ctrl+shift+r."`
	LogLevel string           `help:"Уровень логирования: debug, info, warn, error." default:"info" enum:"debug,info,warn,error" env:"TOLMACH_LOG_LEVEL"`
	Version  kong.VersionFlag `help:"Показать версию и выйти."`
}

func main() {
	// .env из рабочей директории; отсутствие файла не ошибка
	_ = godotenv.Load()

	var flags cli
	kong.Parse(&flags,
		kong.Name("tolmach"),
		kong.Description("Голосовой перевод из системного трея."),
		kong.Vars{"version": Version},
		kong.UsageOnError(),
	)

	cfg := logging.DefaultConfig()
	cfg.Level = flags.LogLevel
	logging.Init(cfg)

	log.Info("starting", "version", Version)

	// Запускаем в главном потоке (требование для macOS и некоторых GUI)
	hotkey.RunOnMainThread(func() {
		run(flags)
	})
}

func run(flags cli) {
	application, err := app.New(app.Options{
		ConfigPath: flags.Config,
		ServerURL:  flags.Server,
		DBPath:     flags.DB,
		Hotkey:     flags.Hotkey,
	})
	if err != nil {
		log.Error("init failed", "err", err)
		os.Exit(1)
	}

	application.Run()
}
