package cmd

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/arvindk/medcompare/config"
	"github.com/arvindk/medcompare/internal/aggregator"
	"github.com/arvindk/medcompare/internal/apollo"
	"github.com/arvindk/medcompare/internal/netmeds"
	"github.com/arvindk/medcompare/internal/onemg"
	"github.com/arvindk/medcompare/internal/pharmeasy"
	"github.com/arvindk/medcompare/internal/source"
	"github.com/arvindk/medcompare/internal/stealth"
	"github.com/arvindk/medcompare/internal/truemeds"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "medcompare",
	Short: "MedCompare - Indian pharmacy price comparison CLI & MCP server",
	Long:  "A Go-based CLI tool and MCP server for comparing medicine prices across Indian online pharmacies.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("delay-profile", "", "Delay profile: cautious, normal, aggressive")
	rootCmd.PersistentFlags().Bool("respect-robots", false, "Respect robots.txt rules")
	rootCmd.PersistentFlags().String("proxy-file", "", "Path to proxy list file")
}

func initConfig() {
	cfg = config.DefaultConfig()
	cfg.LoadFromEnv()

	// Override from flags
	if v, _ := rootCmd.PersistentFlags().GetString("delay-profile"); v != "" {
		cfg.DelayProfile = v
	}
	if v, _ := rootCmd.PersistentFlags().GetBool("respect-robots"); v {
		cfg.RespectRobots = true
	}
	if v, _ := rootCmd.PersistentFlags().GetString("proxy-file"); v != "" {
		cfg.ProxyFile = v
	}
}

// buildHTTPClient creates the pacing-wrapped HTTP client from config.
func buildHTTPClient() *http.Client {
	fpPool := stealth.NewFingerprintPool()
	delay := stealth.NewHumanDelay(stealth.DelayProfile(cfg.DelayProfile))
	limiter := rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst)

	baseTransport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
	}

	var proxyRotator *stealth.ProxyRotator
	if cfg.ProxyFile != "" {
		rotator, err := stealth.NewProxyRotatorFromFile(cfg.ProxyFile)
		if err != nil {
			log.Printf("proxy file %s: %v, continuing direct", cfg.ProxyFile, err)
		} else {
			proxyRotator = rotator
		}
	}

	robotsClient := &http.Client{}
	robots := stealth.NewRobotsChecker(robotsClient, cfg.RespectRobots)

	transport := &stealth.PacingTransport{
		Base:        baseTransport,
		Robots:      robots,
		Fingerprint: fpPool,
		Proxy:       proxyRotator,
		Delay:       delay,
		RateLimiter: limiter,
	}

	return &http.Client{Transport: transport}
}

// buildAggregator wires every pharmacy adapter onto a shared client and
// registers them for name-based lookup.
func buildAggregator() *aggregator.Aggregator {
	client := buildHTTPClient()

	oneMg := onemg.New(client, cfg.OneMg)
	ap := apollo.New(client, cfg.Apollo, cfg.ApolloGeo)
	pe := pharmeasy.New(client, cfg.PharmEasy)
	tm := truemeds.New(client, cfg.TrueMeds)
	nm := netmeds.New(client, cfg.NetMeds)

	source.Register(onemg.Name, oneMg)
	source.Register(apollo.Name, ap)
	source.Register(pharmeasy.Name, pe)
	source.Register(truemeds.Name, tm)
	source.Register(netmeds.Name, nm)

	return &aggregator.Aggregator{
		OneMg:     oneMg,
		Apollo:    ap,
		PharmEasy: pe,
		TrueMeds:  tm,
		NetMeds:   nm,
	}
}
