// Command node starts a novachain validator node.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/big"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/novabft/novachain/blockvalidator"
	"github.com/novabft/novachain/config"
	"github.com/novabft/novachain/consensus"
	"github.com/novabft/novachain/core"
	"github.com/novabft/novachain/crypto/certgen"
	"github.com/novabft/novachain/eraset"
	"github.com/novabft/novachain/events"
	"github.com/novabft/novachain/network"
	"github.com/novabft/novachain/runtime"
	"github.com/novabft/novachain/storage"
	"github.com/novabft/novachain/wallet"
)

func main() {
	cfgPath := flag.String("config", "config.json", "path to config file")
	keyPath := flag.String("key", "validator.key", "path to keystore file")
	genKey := flag.Bool("genkey", false, "generate a new validator key and exit")
	genCerts := flag.String("gencerts", "", "generate CA + node TLS certs into the given directory and exit (requires node ID from config)")
	flag.Parse()

	// Read keystore password from environment (not CLI flags — they leak via ps).
	password := os.Getenv("NOVACHAIN_PASSWORD")
	if password == "" {
		log.Println("WARNING: NOVACHAIN_PASSWORD not set — keystore will use an empty password")
	}

	// ---- generate key mode ----
	if *genKey {
		w, err := wallet.Generate()
		if err != nil {
			log.Fatal(err)
		}
		if err := wallet.SaveKey(*keyPath, password, w.PrivKey()); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Generated key. Public key (validator address): %s\n", w.PubKey())
		fmt.Printf("Saved to: %s\n", *keyPath)
		return
	}

	// ---- generate certs mode ----
	if *genCerts != "" {
		cfgForCerts, err := loadConfig(*cfgPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		if err := certgen.GenerateAll(*genCerts, cfgForCerts.NodeID, nil); err != nil {
			log.Fatalf("gencerts: %v", err)
		}
		fmt.Printf("Certificates generated in %s for node %q\n", *genCerts, cfgForCerts.NodeID)
		return
	}

	// ---- load config ----
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- load validator key ----
	privKey, err := wallet.LoadKey(*keyPath, password)
	if err != nil {
		log.Fatalf("load key: %v", err)
	}

	// ---- open DB ----
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("mkdir data dir: %v", err)
	}
	db, err := storage.NewLevelDB(cfg.DataDir + "/chain")
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	blockStore := storage.NewLevelBlockStore(db)

	// ---- initialise state ----
	state := storage.NewStateDB(db) // reuse same DB with different key prefixes

	// ---- initialise blockchain ----
	bc := core.NewBlockchain(blockStore)
	if err := bc.Init(); err != nil {
		log.Fatalf("blockchain init: %v", err)
	}

	// ---- genesis block (if fresh chain) ----
	if bc.Tip() == nil {
		genesisBlock, err := config.CreateGenesisBlock(cfg, state, privKey)
		if err != nil {
			log.Fatalf("genesis: %v", err)
		}
		if err := bc.AddBlock(genesisBlock); err != nil {
			log.Fatalf("add genesis: %v", err)
		}
		log.Printf("Genesis block committed: %s", genesisBlock.Hash)
	}

	// ---- events ----
	emitter := events.NewEmitter()
	emitter.Subscribe(events.EventEraRewardsComputed, func(ev events.Event) {
		log.Printf("Era %v rewards computed at switch height %d", ev.Data["era_id"], ev.BlockHeight)
	})

	// ---- mempool ----
	mempool := core.NewMempool()

	// ---- era validator bookkeeping and contract runtime ----
	matrix := eraset.NewInMemoryMatrix()
	genesisValidators := make(eraset.EraValidators, len(cfg.Genesis.Validators))
	for pub, weight := range cfg.Genesis.Validators {
		genesisValidators[pub] = new(big.Int).SetUint64(weight)
	}
	matrix.Put(0, genesisValidators)
	rt := runtime.NewInMemoryRuntime()

	// ---- consensus ----
	poa := consensus.New(cfg, bc, state, mempool, matrix, rt, emitter, privKey)

	// ---- TLS ----
	tlsCfg, err := config.LoadTLSConfig(cfg.TLS)
	if err != nil {
		log.Fatalf("tls: %v", err)
	}
	if tlsCfg != nil {
		log.Println("mTLS enabled for P2P")
	}

	// ---- network ----
	p2pAddr := fmt.Sprintf(":%d", cfg.P2PPort)
	node := network.NewNode(cfg.NodeID, p2pAddr, mempool, tlsCfg)
	syncer := network.NewSyncer(node, bc, mempool, poa, nil, nil)

	// ---- proposed-block validator ----
	// Every block the syncer pulls in from a peer is first run through
	// admission here (deploy/transfer resolution, duplicate rejection, the
	// rewarded-signature subset check against matrix) before PoA's own
	// structural/signature check ever sees it.
	validatorCfg := blockvalidator.Config{
		Limits:                   consensus.BlockLimitsFromConfig(cfg),
		SignatureRewardsMaxDelay: cfg.Era.SignatureRewardsMaxDelay,
	}
	proposalValidator := blockvalidator.NewValidator(validatorCfg, blockStore, syncer, matrix, log.Default())
	go proposalValidator.Run()
	defer proposalValidator.Stop()
	syncer.SetProposalValidator(proposalValidator, 10*time.Second)

	if err := node.Start(); err != nil {
		log.Fatalf("p2p start: %v", err)
	}
	defer node.Stop()
	log.Printf("P2P listening on %s", p2pAddr)

	// ---- connect to seed peers ----
	for _, sp := range cfg.SeedPeers {
		if err := node.AddPeer(sp.ID, sp.Addr); err != nil {
			log.Printf("seed peer %s (%s): %v", sp.ID, sp.Addr, err)
			continue
		}
		if peer := node.Peer(sp.ID); peer != nil {
			if err := syncer.RequestBlocks(peer, bc.Height()+1); err != nil {
				log.Printf("initial sync request to %s: %v", sp.ID, err)
			}
		}
		log.Printf("Connected to seed peer %s (%s)", sp.ID, sp.Addr)
	}

	// ---- consensus loop ----
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		poa.Run(2*time.Second, done)
	}()
	log.Printf("Consensus running (validator: %s)", privKey.Public().Hex())

	// ---- graceful shutdown ----
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("Shutting down...")

	// 1. Stop consensus first (no new blocks written)
	close(done)
	wg.Wait()

	// 2. Deferred calls run in LIFO: node.Stop → proposalValidator.Stop → db.Close
	log.Println("Shutdown complete.")
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Config file not found at %s, using defaults.", path)
			return config.DefaultConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}
