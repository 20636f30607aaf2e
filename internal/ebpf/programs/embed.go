// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package programs

//go:generate go run github.com/cilium/ebpf/cmd/bpf2go@latest --no-strip --target=bpfel --cc=/opt/homebrew/opt/llvm/bin/clang Connect4 c/connect4.c -- -O2 -target bpf -I.
//go:generate go run github.com/cilium/ebpf/cmd/bpf2go@latest --no-strip --target=bpfel --cc=/opt/homebrew/opt/llvm/bin/clang FileOpen c/file_open.c -- -O2 -target bpf -I.
