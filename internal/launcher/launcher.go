// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package launcher composes policy assembly, the kernel-enforcement
// surface and the refresh loop into the end-to-end flow that creates a
// cgroup, attaches filters, seeds them, runs the target command scoped to
// that cgroup, and tears everything down when it exits.
package launcher

import (
	"net"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"mori.run/mori/internal/cgroupmgr"
	"mori.run/mori/internal/dnscache"
	"mori.run/mori/internal/dnsresolve"
	"mori.run/mori/internal/filefilter"
	"mori.run/mori/internal/morierr"
	"mori.run/mori/internal/morilog"
	"mori.run/mori/internal/netfilter"
	"mori.run/mori/internal/policy"
	"mori.run/mori/internal/refresh"
	"mori.run/mori/internal/shutdown"
)

// loopbackV4 is admitted unconditionally: loopback traffic is never denied.
var loopbackV4 = net.IPv4(127, 0, 0, 1)

// Launcher owns one run of the target command: cgroup, filters, refresh
// loop and child process, in that creation order and the reverse teardown
// order.
type Launcher struct {
	Policy  moriPolicy
	Command []string
	Log     morilog.Logger
	Stdin   *os.File
	Stdout  *os.File
	Stderr  *os.File

	// Resolver is swappable for tests; nil means dnsresolve.NewSystemResolver().
	Resolver dnsresolve.Resolver
	// NewNetworkFilter and NewFileFilter are swappable for tests; nil means
	// the real eBPF-backed controllers.
	NewNetworkFilter func(cgroupDir *os.File) (netfilter.Controller, error)
	NewFileFilter    func(cgroupDir *os.File) (filefilter.Controller, error)
}

// moriPolicy is the resolved network+file policy a Launcher runs under.
type moriPolicy struct {
	Network policy.NetworkPolicy
	File    policy.FilePolicy
}

// New returns a Launcher for the given resolved policy and command argv
// (command[0] is the executable, command[1:] its arguments).
func New(network policy.NetworkPolicy, file policy.FilePolicy, command []string, log morilog.Logger) *Launcher {
	return &Launcher{
		Policy:  moriPolicy{Network: network, File: file},
		Command: command,
		Log:     log,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Run executes the full launcher state machine and returns the process
// exit code mori itself should exit with: the child's exit code, or
// 128+signal if the child was signalled, or a small positive code for a
// supervisor-side failure that occurred before the child could run.
func (l *Launcher) Run() (int, error) {
	if len(l.Command) == 0 {
		return 1, morierr.New(morierr.KindProcess, "no command given")
	}

	if l.Policy.Network.IsAllowAll() && l.Policy.File.IsEmpty() {
		return l.runUnfiltered()
	}

	cgroup, err := cgroupmgr.Create(os.Getpid())
	if err != nil {
		return 1, err
	}
	defer func() {
		if err := cgroup.Remove(); err != nil {
			l.Log.Warn("failed to remove cgroup", "error", err)
		}
	}()

	var netFilter netfilter.Controller
	if !l.Policy.Network.IsAllowAll() {
		netFilter, err = l.newNetworkFilter(cgroup.Dir())
		if err != nil {
			return 1, err
		}
		defer netFilter.Close()

		if err := seedNetworkFilter(netFilter, l.Policy.Network); err != nil {
			return 1, err
		}
	}

	var fileFilter filefilter.Controller
	if !l.Policy.File.IsEmpty() {
		fileFilter, err = l.newFileFilter(cgroup.Dir())
		if err != nil {
			return 1, err
		}
		defer fileFilter.Close()

		for _, denied := range l.Policy.File.Denied {
			if err := fileFilter.DenyPath(denied.Path, uint8(denied.Mode)); err != nil {
				return 1, morierr.Attr(err, "path", denied.Path)
			}
		}
	}

	domains := l.Policy.Network.Domains()
	cache := dnscache.New()
	var wg sync.WaitGroup
	signal := shutdown.New()

	if netFilter != nil && len(domains) > 0 {
		resolver := l.resolver()
		resolved, err := resolver.Resolve(domains)
		if err != nil {
			return 1, morierr.Wrap(err, morierr.KindResolver, "initial domain resolution failed")
		}
		if err := seedResolvedAddresses(cache, netFilter, resolved); err != nil {
			return 1, err
		}

		loop := refresh.New(domains, cache, resolver, netFilter, signal, l.Log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			loop.Run()
		}()
	}

	cmd := exec.Command(l.Command[0], l.Command[1:]...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = l.Stdin, l.Stdout, l.Stderr
	if err := cmd.Start(); err != nil {
		signal.Signal()
		wg.Wait()
		return 1, morierr.Wrap(err, morierr.KindProcess, "failed to start command")
	}

	// The child may execute a handful of instructions before this enrollment
	// completes; mori accepts this race rather than a pipe-gated rendezvous,
	// matching the upstream supervisor's own spawn-then-enroll ordering.
	if err := cgroup.Enroll(cmd.Process.Pid); err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		signal.Signal()
		wg.Wait()
		return 1, err
	}

	waitErr := cmd.Wait()
	signal.Signal()
	wg.Wait()

	return exitCode(waitErr), nil
}

// runUnfiltered is the allow-all-and-no-file-denies fast path: the cgroup
// is still created so the process tree is scoped the same way regardless
// of policy, but no filter program is ever attached or populated.
func (l *Launcher) runUnfiltered() (int, error) {
	cgroup, err := cgroupmgr.Create(os.Getpid())
	if err != nil {
		return 1, err
	}
	defer func() {
		if err := cgroup.Remove(); err != nil {
			l.Log.Warn("failed to remove cgroup", "error", err)
		}
	}()

	cmd := exec.Command(l.Command[0], l.Command[1:]...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = l.Stdin, l.Stdout, l.Stderr
	if err := cmd.Start(); err != nil {
		return 1, morierr.Wrap(err, morierr.KindProcess, "failed to start command")
	}

	if err := cgroup.Enroll(cmd.Process.Pid); err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return 1, err
	}

	waitErr := cmd.Wait()
	return exitCode(waitErr), nil
}

func (l *Launcher) resolver() dnsresolve.Resolver {
	if l.Resolver != nil {
		return l.Resolver
	}
	return dnsresolve.NewSystemResolver()
}

func (l *Launcher) newNetworkFilter(cgroupDir *os.File) (netfilter.Controller, error) {
	if l.NewNetworkFilter != nil {
		return l.NewNetworkFilter(cgroupDir)
	}
	return netfilter.NewRealController(cgroupDir)
}

func (l *Launcher) newFileFilter(cgroupDir *os.File) (filefilter.Controller, error) {
	if l.NewFileFilter != nil {
		return l.NewFileFilter(cgroupDir)
	}
	return filefilter.NewRealController(cgroupDir)
}

// seedNetworkFilter inserts every direct IPv4 at /32, every CIDR at its
// specified prefix, and 127.0.0.1/32 unconditionally, before the launcher
// runs the initial resolver pass.
func seedNetworkFilter(filter netfilter.Controller, network policy.NetworkPolicy) error {
	for _, ip := range network.IPv4() {
		if err := filter.AllowNetwork(ip, 32); err != nil {
			return morierr.Attr(err, "ip", ip.String())
		}
	}
	for _, c := range network.CIDR() {
		if err := filter.AllowNetwork(c.IP, uint8(c.Prefix)); err != nil {
			return morierr.Attr(err, "cidr", c.IP.String())
		}
	}
	if err := filter.AllowNetwork(loopbackV4, 32); err != nil {
		return morierr.Wrap(err, morierr.KindKernel, "failed to admit loopback")
	}
	return nil
}

// seedResolvedAddresses primes the cache with the launcher's initial
// resolver call and admits every resolved address and nameserver. A map-
// insertion failure here is fatal, matching seedNetworkFilter: both seed the
// same allow-table before the child ever runs, so there is no principled
// reason to treat a resolver-derived entry's failure as more survivable than
// a policy-declared one's.
func seedResolvedAddresses(cache *dnscache.Cache, filter netfilter.Controller, resolved dnsresolve.Resolved) error {
	now := time.Now()
	for _, d := range resolved.Domains {
		diff := cache.Apply(d.Domain, now, d.Records)
		for _, ip := range diff.Added {
			if err := filter.AllowNetwork(ip, 32); err != nil {
				return morierr.Attr(err, "ip", ip.String())
			}
		}
	}
	for _, ns := range resolved.Nameservers {
		if err := filter.AllowNetwork(ns, 32); err != nil {
			return morierr.Attr(err, "nameserver", ns.String())
		}
	}
	return nil
}

// exitCode extracts a process exit code from cmd.Wait()'s error, following
// the 128+signal convention for a signalled child.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return 1
	}
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok {
		return exitErr.ExitCode()
	}
	if status.Signaled() {
		return 128 + int(status.Signal())
	}
	return status.ExitStatus()
}
