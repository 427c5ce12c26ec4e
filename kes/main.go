package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bwesterb/go-kes"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Contents of the optional configuration file.
type config struct {
	Algorithm string    `toml:"algorithm"`
	Log       logConfig `toml:"log"`
}

type logConfig struct {
	Enabled     bool   `toml:"enabled"`
	Environment string `toml:"env"`
	Path        string `toml:"path,omitempty"`
}

var conf = config{
	Algorithm: "Sum6Kes",
	Log:       logConfig{Environment: "production"},
}

func loadConfig(c *cli.Context) error {
	if path := c.GlobalString("config"); path != "" {
		if _, err := toml.DecodeFile(path, &conf); err != nil {
			return fmt.Errorf("config %s: %v", path, err)
		}
	}
	if c.GlobalBool("verbose") {
		conf.Log.Enabled = true
		conf.Log.Environment = "development"
	}
	if !conf.Log.Enabled {
		return nil
	}
	logger, err := newLogger(conf.Log)
	if err != nil {
		return err
	}
	kes.SetLogger(kes.NewZapLogger(logger))
	return nil
}

func newLogger(lc logConfig) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	switch {
	case strings.EqualFold("development", lc.Environment):
		level.SetLevel(zap.DebugLevel)
	case strings.EqualFold("production", lc.Environment):
		level.SetLevel(zap.InfoLevel)
	default:
		return nil, fmt.Errorf("log env must be development or production")
	}

	outputs := []string{"stderr"}
	if lc.Path != "" {
		outputs = append(outputs, lc.Path)
	}

	zc := zap.Config{
		Level:             level,
		Encoding:          "console",
		DisableStacktrace: true,
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			MessageKey:     "msg",
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		},
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	}
	return zc.Build()
}

func contextFromFlag(c *cli.Context) (*kes.Context, error) {
	name := c.String("alg")
	if name == "" {
		name = conf.Algorithm
	}
	ctx := kes.NewContextFromName(name)
	if ctx == nil {
		return nil, fmt.Errorf("unknown algorithm %s; see algs", name)
	}
	return ctx, nil
}

func hexFlag(c *cli.Context, name string) ([]byte, error) {
	ret, err := hex.DecodeString(c.String(name))
	if err != nil {
		return nil, fmt.Errorf("--%s: %v", name, err)
	}
	return ret, nil
}

func messageFlag(c *cli.Context) ([]byte, error) {
	if c.IsSet("msg-hex") {
		return hexFlag(c, "msg-hex")
	}
	if path := c.String("msg-file"); path != "" {
		return os.ReadFile(path)
	}
	return []byte(c.String("msg")), nil
}

// Opens the key container given by --key.
func openContainer(c *cli.Context) (*kes.FSKeyContainer, error) {
	path := c.String("key")
	if path == "" {
		return nil, fmt.Errorf("missing --key")
	}
	ctr, err := kes.OpenFSKeyContainer(path)
	if err != nil {
		return nil, err
	}
	return ctr, nil
}

// Opens the container given by --key and loads the key in it.
func loadKey(c *cli.Context) (*kes.FSKeyContainer, *kes.PrivateKey, error) {
	ctr, err := openContainer(c)
	if err != nil {
		return nil, nil, err
	}
	sk, kerr := ctr.Load()
	if kerr != nil {
		ctr.Close()
		return nil, nil, kerr
	}
	return ctr, sk, nil
}

func cmdAlgs(c *cli.Context) error {
	for _, name := range kes.ListNames() {
		ctx := kes.NewContextFromName(name)
		fmt.Printf("%-44s periods %-4d vk %-3d sig %-5d sk %d\n",
			ctx.Name(), ctx.TotalPeriods(), ctx.VerificationKeySize(),
			ctx.SignatureSize(), ctx.SigningKeySize())
	}
	return nil
}

func cmdKeygen(c *cli.Context) error {
	ctx, err := contextFromFlag(c)
	if err != nil {
		return err
	}
	ctr, err := openContainer(c)
	if err != nil {
		return err
	}
	defer ctr.Close()
	if ctr.Initialized() && !c.Bool("force") {
		return fmt.Errorf("%s already holds a key; use --force to replace it",
			c.String("key"))
	}

	var sk *kes.PrivateKey
	var pk *kes.PublicKey
	var kerr kes.Error
	if c.IsSet("seed") {
		seed, err := hexFlag(c, "seed")
		if err != nil {
			return err
		}
		sk, pk, kerr = ctx.Derive(seed)
	} else {
		sk, pk, kerr = ctx.GenerateKeyPair()
	}
	if kerr != nil {
		return kerr
	}
	defer sk.Close()

	if kerr = ctr.Store(sk); kerr != nil {
		return kerr
	}
	fmt.Println(pk.VerificationKey())
	return nil
}

func cmdVk(c *cli.Context) error {
	ctr, sk, err := loadKey(c)
	if err != nil {
		return err
	}
	defer ctr.Close()
	defer sk.Close()
	pk := sk.PublicKey()
	fmt.Printf("algorithm    %s\n", sk.Context())
	fmt.Printf("vk           %s\n", pk.VerificationKey())
	fmt.Printf("fingerprint  %s\n", pk.Fingerprint())
	fmt.Printf("vk hash      %x\n",
		kes.HashVerificationKey(kes.Blake2b224, pk.VerificationKey()))
	fmt.Printf("period       %d of %d\n", sk.Period(), sk.Context().TotalPeriods())
	return nil
}

func cmdEvolve(c *cli.Context) error {
	ctr, sk, err := loadKey(c)
	if err != nil {
		return err
	}
	defer ctr.Close()
	defer sk.Close()

	target := sk.Period() + 1
	if c.IsSet("to") {
		target = kes.Period(c.Uint64("to"))
	}
	if target >= sk.Context().TotalPeriods() {
		return fmt.Errorf("period %d is past the last period %d of the key",
			target, sk.Context().TotalPeriods()-1)
	}
	if kerr := sk.EvolveTo(target); kerr != nil {
		return kerr
	}
	if kerr := ctr.Store(sk); kerr != nil {
		return kerr
	}
	fmt.Printf("evolved to period %d\n", sk.Period())
	return nil
}

func cmdSign(c *cli.Context) error {
	msg, err := messageFlag(c)
	if err != nil {
		return err
	}
	ctr, sk, err := loadKey(c)
	if err != nil {
		return err
	}
	defer ctr.Close()
	defer sk.Close()

	sig, kerr := sk.Sign(msg)
	if kerr != nil {
		return kerr
	}
	buf, _ := sig.MarshalBinary()
	fmt.Println(hex.EncodeToString(buf))
	return nil
}

func cmdVerify(c *cli.Context) error {
	ctx, err := contextFromFlag(c)
	if err != nil {
		return err
	}
	msg, err := messageFlag(c)
	if err != nil {
		return err
	}
	vkBytes, err := hexFlag(c, "vk")
	if err != nil {
		return err
	}
	sigBytes, err := hexFlag(c, "sig")
	if err != nil {
		return err
	}

	pk, kerr := ctx.PublicKeyFromBytes(vkBytes)
	if kerr != nil {
		return kerr
	}
	sig, kerr := ctx.SignedKESFromBytes(sigBytes)
	if kerr != nil {
		return kerr
	}
	ok, kerr := pk.Verify(sig, msg)
	if kerr != nil {
		return kerr
	}
	if !ok {
		return cli.NewExitError("signature invalid", 1)
	}
	fmt.Printf("signature valid for period %d\n", sig.Period)
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "kes"
	app.Usage = "Forward-secure key-evolving signatures"

	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Usage: "TOML configuration file"},
		cli.BoolFlag{Name: "verbose", Usage: "log to stderr"},
	}
	app.Before = loadConfig

	keyFlag := cli.StringFlag{Name: "key", Usage: "path to the key container"}
	algFlag := cli.StringFlag{Name: "alg", Usage: "KES instance, see algs"}
	msgFlags := []cli.Flag{
		cli.StringFlag{Name: "msg", Usage: "message"},
		cli.StringFlag{Name: "msg-hex", Usage: "message in hexadecimal"},
		cli.StringFlag{Name: "msg-file", Usage: "file containing the message"},
	}

	app.Commands = []cli.Command{
		{
			Name:   "algs",
			Usage:  "List KES instances",
			Action: cmdAlgs,
		},
		{
			Name:   "keygen",
			Usage:  "Generate a key and store it in a key container",
			Action: cmdKeygen,
			Flags: []cli.Flag{
				keyFlag,
				algFlag,
				cli.StringFlag{Name: "seed", Usage: "seed in hexadecimal (random if omitted)"},
				cli.BoolFlag{Name: "force", Usage: "overwrite an existing key"},
			},
		},
		{
			Name:   "vk",
			Usage:  "Print the verification key of a stored key",
			Action: cmdVk,
			Flags:  []cli.Flag{keyFlag},
		},
		{
			Name:   "evolve",
			Usage:  "Evolve a stored key to a later period",
			Action: cmdEvolve,
			Flags: []cli.Flag{
				keyFlag,
				cli.Uint64Flag{Name: "to", Usage: "target period (default: next)"},
			},
		},
		{
			Name:   "sign",
			Usage:  "Sign a message in the current period of a stored key",
			Action: cmdSign,
			Flags:  append([]cli.Flag{keyFlag}, msgFlags...),
		},
		{
			Name:   "verify",
			Usage:  "Verify a signature",
			Action: cmdVerify,
			Flags: append([]cli.Flag{
				algFlag,
				cli.StringFlag{Name: "vk", Usage: "verification key in hexadecimal"},
				cli.StringFlag{Name: "sig", Usage: "signature in hexadecimal"},
			}, msgFlags...),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
