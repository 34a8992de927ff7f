package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/redcell/swarm/internal/agent"
	"github.com/redcell/swarm/internal/checkpoint"
	"github.com/redcell/swarm/internal/config"
	"github.com/redcell/swarm/internal/eventlog"
	"github.com/redcell/swarm/internal/executor"
	"github.com/redcell/swarm/internal/memory"
	"github.com/redcell/swarm/internal/sessions"
	"github.com/redcell/swarm/internal/streamui"
	"github.com/redcell/swarm/internal/swarm"
	"github.com/redcell/swarm/internal/toolserver"
)

// runtime bundles the wired-together components one CLI invocation needs.
// graph and executor are rebuilt in place when the swarm's agent bindings
// file changes on disk, so chat's loop dispatches through currentExecutor
// rather than holding its own reference.
type runtime struct {
	cfg      *config.Config
	provider agent.LLMProvider
	store    sessions.Store
	cp       checkpoint.Checkpointer
	logs     eventlog.Store
	tools    *toolserver.Server
	mem      *memory.Manager

	mu       sync.RWMutex
	graph    *swarm.Graph
	executor *executor.Executor

	watcher    *config.Watcher
	stream     *streamui.Server
	streamHTTP *http.Server
}

// buildRuntime loads cfg from path (or the built-in default if path is
// empty) and wires every C1-C7 component the chat and logs subcommands
// need. model, if non-empty, overrides cfg.LLM.DefaultProvider. If
// cfg.Swarm.AgentBindingsFile is set, buildRuntime also starts a watcher
// that rebuilds the agent graph whenever that file changes.
func buildRuntime(path, model string) (*runtime, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, err
	}

	provider, err := buildProvider(cfg, model)
	if err != nil {
		return nil, fmt.Errorf("swarmctl: build llm provider: %w", err)
	}

	logger := slog.Default().With("component", "tool_server")
	tools := toolserver.NewServer(cfg.ToolServer.Container, logger)

	store := sessions.NewMemoryStore()

	mem, err := memory.NewManager(&memory.Config{Enabled: cfg.Memory.Enabled})
	if err != nil {
		return nil, fmt.Errorf("swarmctl: build memory manager: %w", err)
	}

	bindings, err := config.LoadAgentBindings(cfg.Swarm.AgentBindingsFile)
	if err != nil {
		return nil, fmt.Errorf("swarmctl: load agent bindings: %w", err)
	}

	graph, err := buildGraph(cfg, provider, store, tools, mem, bindings)
	if err != nil {
		return nil, fmt.Errorf("swarmctl: build agent graph: %w", err)
	}

	cp := checkpoint.New(store, sessions.NewMemoryToolEventStore())

	logDir := cfg.EventLog.Directory
	if logDir == "" {
		logDir = "./logs"
	}
	logs := eventlog.NewFileStore(logDir)

	rt := &runtime{
		cfg:      cfg,
		provider: provider,
		store:    store,
		cp:       cp,
		logs:     logs,
		tools:    tools,
		mem:      mem,
		graph:    graph,
		executor: executor.New(graph, store, cp, logs),
	}

	if cfg.Swarm.AgentBindingsFile != "" {
		watcher, err := config.NewWatcher(cfg.Swarm.AgentBindingsFile, 250*time.Millisecond, rt.reloadAgentBindings)
		if err != nil {
			slog.Warn("swarmctl: could not build agent bindings watcher", "error", err)
		} else if err := watcher.Start(context.Background()); err != nil {
			slog.Warn("swarmctl: could not start agent bindings watcher", "error", err)
		} else {
			rt.watcher = watcher
		}
	}

	if cfg.Server.StreamPort != 0 {
		rt.stream = streamui.NewServer(slog.Default().With("component", "streamui"))
		mux := http.NewServeMux()
		mux.Handle("/stream", rt.stream)
		rt.streamHTTP = &http.Server{Addr: ":" + strconv.Itoa(cfg.Server.StreamPort), Handler: mux}
		go func() {
			if err := rt.streamHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Warn("swarmctl: streamui server stopped", "error", err)
			}
		}()
	}

	return rt, nil
}

// reloadAgentBindings rebuilds the agent graph from cfg.Swarm.AgentBindingsFile's
// current contents and swaps it in atomically. A bad or unreadable bindings
// file is logged and leaves the running graph untouched.
func (rt *runtime) reloadAgentBindings() {
	bindings, err := config.LoadAgentBindings(rt.cfg.Swarm.AgentBindingsFile)
	if err != nil {
		slog.Warn("swarmctl: reload agent bindings", "error", err)
		return
	}

	graph, err := buildGraph(rt.cfg, rt.provider, rt.store, rt.tools, rt.mem, bindings)
	if err != nil {
		slog.Warn("swarmctl: rebuild agent graph", "error", err)
		return
	}

	rt.mu.Lock()
	rt.graph = graph
	rt.executor = executor.New(graph, rt.store, rt.cp, rt.logs)
	rt.mu.Unlock()

	slog.Info("swarmctl: reloaded agent bindings", "file", rt.cfg.Swarm.AgentBindingsFile)
}

// currentExecutor returns the executor currently backing the agent graph.
func (rt *runtime) currentExecutor() *executor.Executor {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.executor
}

// Close stops the agent bindings watcher and the streaming UI server, if
// either was started.
func (rt *runtime) Close() error {
	if rt.streamHTTP != nil {
		_ = rt.streamHTTP.Close()
	}
	if rt.watcher != nil {
		return rt.watcher.Close()
	}
	return nil
}

// loadConfig loads the file at path, or returns the built-in Default when
// path is empty (no default config file is looked up on disk), then applies
// DOCKER_CONTAINER, DEBUG_MODE and CHAT_HEIGHT onto ToolServer when set.
func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if v := os.Getenv("DOCKER_CONTAINER"); v != "" {
		cfg.ToolServer.Container = v
	}
	if v, err := strconv.ParseBool(os.Getenv("DEBUG_MODE")); err == nil {
		cfg.ToolServer.Debug = v
	}
	if v, err := strconv.Atoi(os.Getenv("CHAT_HEIGHT")); err == nil {
		cfg.ToolServer.ChatHeightHint = v
	}
	return cfg, nil
}
