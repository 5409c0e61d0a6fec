package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/regolith-labs/ore-cli-sub000/dal"
	"github.com/regolith-labs/ore-cli-sub000/poolclient"
	"github.com/regolith-labs/ore-cli-sub000/service"
	"github.com/regolith-labs/ore-cli-sub000/utils"
)

const version = "2.1.0"

const (
	showHelpMessage = "Specify -h to show available options"
	listCmdMessage  = "Specify -l to list available commands"
)

// commandEnv is what a command runs against.
type commandEnv struct {
	api *poolclient.API
	cfg *config
}

type command struct {
	usage   string
	minArgs int
	run     func(ctx context.Context, env *commandEnv, args []string) (interface{}, error)
}

var commands = map[string]command{
	"address": {"address", 0, func(ctx context.Context, env *commandEnv, args []string) (interface{}, error) {
		addr, err := env.api.PoolAddress(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]string{"address": addr}, nil
	}},
	"member": {"member <authority>", 1, func(ctx context.Context, env *commandEnv, args []string) (interface{}, error) {
		return env.api.Member(ctx, args[0])
	}},
	"register": {"register <authority>", 1, func(ctx context.Context, env *commandEnv, args []string) (interface{}, error) {
		return env.api.Register(ctx, args[0])
	}},
	"challenge": {"challenge <authority>", 1, func(ctx context.Context, env *commandEnv, args []string) (interface{}, error) {
		return env.api.Challenge(ctx, args[0])
	}},
	"event": {"event <authority>", 1, func(ctx context.Context, env *commandEnv, args []string) (interface{}, error) {
		return env.api.LatestEvent(ctx, args[0])
	}},
	"history": {"history <authority> [limit]", 1, history},
	"failed":  {"failed [limit]", 0, failed},
	"tx":      {"tx <signature>", 1, transaction},
}

// openHistory connects to the history database configured for poolctl.
func openHistory(env *commandEnv) (service.HistoryService, error) {
	dbCfg := env.cfg.dbConfig()
	if dbCfg == nil {
		return nil, errors.New("history needs --dbusername")
	}
	if err := dal.InitDB(dbCfg, false); err != nil {
		return nil, err
	}
	return service.GetHistoryService(), nil
}

func parseLimit(args []string, i int) (int, error) {
	if len(args) <= i {
		return 20, nil
	}
	n, err := strconv.Atoi(args[i])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid limit %q", args[i])
	}
	return n, nil
}

// history lists the solutions recorded by the miner for an authority.
func history(ctx context.Context, env *commandEnv, args []string) (interface{}, error) {
	limit, err := parseLimit(args, 1)
	if err != nil {
		return nil, err
	}
	svc, err := openHistory(env)
	if err != nil {
		return nil, err
	}
	db := dal.GetDB(ctx)
	records, err := svc.GetRecent(ctx, db, args[0], limit)
	if err != nil {
		return nil, err
	}
	total, err := svc.GetTotalReward(ctx, db, args[0])
	if err != nil {
		return nil, err
	}
	count, err := svc.GetRecordCount(ctx, db, args[0])
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"total_reward":  total,
		"total_records": count,
		"records":       records,
	}, nil
}

func failed(ctx context.Context, env *commandEnv, args []string) (interface{}, error) {
	limit, err := parseLimit(args, 0)
	if err != nil {
		return nil, err
	}
	svc, err := openHistory(env)
	if err != nil {
		return nil, err
	}
	return svc.GetFailedTransactions(ctx, dal.GetDB(ctx), limit)
}

func transaction(ctx context.Context, env *commandEnv, args []string) (interface{}, error) {
	svc, err := openHistory(env)
	if err != nil {
		return nil, err
	}
	return svc.GetTransaction(ctx, dal.GetDB(ctx), args[0])
}

// listCommands prints the supported commands.
func listCommands() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("Commands:")
	for _, name := range names {
		fmt.Println("  " + commands[name].usage)
	}
}

// runCommand executes the named command.
func runCommand(ctx context.Context, env *commandEnv, name string, args []string) (interface{}, error) {
	cmd, ok := commands[name]
	if !ok {
		return nil, fmt.Errorf("unrecognized command %q", name)
	}
	if len(args) < cmd.minArgs {
		return nil, fmt.Errorf("usage: %s", cmd.usage)
	}
	return cmd.run(ctx, env, args)
}

func main() {
	cfg, args, err := loadConfig()
	if err != nil {
		os.Exit(1)
	}
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "No command specified")
		fmt.Fprintln(os.Stderr, showHelpMessage)
		fmt.Fprintln(os.Stderr, listCmdMessage)
		os.Exit(1)
	}

	api := poolclient.NewAPI(cfg.PoolURL, utils.NewHTTPClient(cfg.proxyConfig(), cfg.Timeout))
	api.UserAgent = utils.GetNodeDesc(version)
	env := &commandEnv{api: api, cfg: cfg}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	result, err := runCommand(ctx, env, args[0], args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
