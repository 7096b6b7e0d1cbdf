package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/aneko/pkg/app"
	"github.com/decker502/aneko/pkg/embedded"
)

var (
	configFlag    = flag.String("config", "", "Path to config.yaml (default: embedded data/config.yaml)")
	verboseFlag   = flag.Bool("verbose", false, "Enable verbose logging")
	skinFlag      = flag.String("skin", "", "Skin to use (saved to preferences)")
	behaviourFlag = flag.String("behaviour", "", "Movement behaviour: closer, further or whimsical (saved to preferences)")
)

func main() {
	flag.Parse()

	// assetsFS 和 dataFS 在 embed.go 中声明
	embedded.Init(assetsFS, dataFS)

	a, err := app.NewApp(app.Config{
		Verbose:    *verboseFlag,
		ConfigPath: *configFlag,
		Skin:       *skinFlag,
		Behaviour:  *behaviourFlag,
	})
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}
	defer a.Close()

	a.ConfigureWindow()
	if err := ebiten.RunGameWithOptions(a, a.RunOptions()); err != nil {
		log.Fatal(err)
	}
}
