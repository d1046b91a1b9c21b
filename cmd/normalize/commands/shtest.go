package commands

// ShTestCmd implements the 'sh-test' command.
type ShTestCmd struct {
	File string `arg:"" help:"Documentation file" type:"existingfile"`
}

func (c *ShTestCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.svc.WithReportHook(newPrinter(g.out()).Report)
	ctx, cancel := signalContext()
	defer cancel()
	_, err = rt.svc.SelfTest(ctx, c.File)
	return err
}
