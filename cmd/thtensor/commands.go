package main

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/born-ml/thtensor/internal/native"
	"github.com/born-ml/thtensor/internal/native/gpu"
	"github.com/born-ml/thtensor/internal/serialization"
	"github.com/born-ml/thtensor/internal/tensor"
)

func newOffsetCmd() *cobra.Command {
	var shape, index []int
	cmd := &cobra.Command{
		Use:   "offset",
		Short: "Resolve a multi-dimensional index to a flat offset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := tensor.Shape(shape)
			if err := s.Validate(); err != nil {
				return err
			}
			strides := s.ComputeStrides()
			off, err := s.Offset(strides, index...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "shape=%v strides=%v index=%v offset=%d\n", s, strides, index, off)
			return nil
		},
	}
	cmd.Flags().IntSliceVar(&shape, "shape", nil, "tensor extents, e.g. 2,3")
	cmd.Flags().IntSliceVar(&index, "index", nil, "coordinates, e.g. 1,2")
	_ = cmd.MarkFlagRequired("shape")
	return cmd
}

type randnFlags struct {
	shape []int
	seed  uint64
	dtype string
}

func (f *randnFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntSliceVar(&f.shape, "shape", []int{2, 3}, "tensor extents")
	cmd.Flags().Uint64Var(&f.seed, "seed", 1, "random seed")
	cmd.Flags().StringVar(&f.dtype, "dtype", "float32", "float32 or float64")
}

func newRandnCmd(g *globalFlags) *cobra.Command {
	f := &randnFlags{}
	cmd := &cobra.Command{
		Use:   "randn",
		Short: "Allocate a tensor and fill it with standard normal samples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAllocator(g, func(a native.Allocator) error {
				switch f.dtype {
				case "float32":
					return printRandn[float32](cmd, f, a)
				case "float64":
					return printRandn[float64](cmd, f, a)
				default:
					return fmt.Errorf("unknown dtype %q", f.dtype)
				}
			})
		},
	}
	f.register(cmd)
	return cmd
}

func printRandn[T tensor.Float](cmd *cobra.Command, f *randnFlags, a native.Allocator) error {
	t, err := tensor.Randn[T](tensor.Shape(f.shape), tensor.NewGenerator(f.seed), tensor.WithAllocator(a))
	if err != nil {
		return err
	}
	defer t.Release()

	slog.Debug("tensor allocated", slog.Any("tensor", t))
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, t)
	fmt.Fprintln(out, formatRows(t))
	return nil
}

// formatRows prints the tensor one innermost row per line.
func formatRows[T tensor.Float](t *tensor.Tensor[T]) string {
	data := t.Data()
	width := len(data)
	if t.Dim() > 0 {
		width = t.Shape()[t.Dim()-1]
	}
	if width == 0 {
		return "[]"
	}
	rows := lo.Chunk(data, width)
	lines := lo.Map(rows, func(row []T, _ int) string {
		return fmt.Sprint(row)
	})
	return strings.Join(lines, "\n")
}

func newSaveCmd(g *globalFlags) *cobra.Command {
	f := &randnFlags{}
	var out, name string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Write a random tensor to a SafeTensors file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAllocator(g, func(a native.Allocator) error {
				meta := map[string]string{"seed": fmt.Sprint(f.seed)}
				switch f.dtype {
				case "float32":
					return saveRandn[float32](f, a, out, name, meta)
				case "float64":
					return saveRandn[float64](f, a, out, name, meta)
				default:
					return fmt.Errorf("unknown dtype %q", f.dtype)
				}
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	cmd.Flags().StringVar(&name, "name", "randn", "tensor name")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func saveRandn[T tensor.Float](f *randnFlags, a native.Allocator, path, name string, meta map[string]string) error {
	t, err := tensor.Randn[T](tensor.Shape(f.shape), tensor.NewGenerator(f.seed), tensor.WithAllocator(a))
	if err != nil {
		return err
	}
	defer t.Release()

	if err := serialization.WriteSafeTensors(path, map[string]*tensor.Tensor[T]{name: t}, meta); err != nil {
		return err
	}
	slog.Info("saved", slog.String("path", path), slog.String("name", name), slog.Any("tensor", t))
	return nil
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "List the tensors in a SafeTensors file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := serialization.OpenSafeTensors(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			infos := make([]serialization.TensorInfo, 0, len(r.Names()))
			for _, name := range r.Names() {
				info, err := r.Info(name)
				if err != nil {
					return err
				}
				infos = append(infos, info)
			}

			out := cmd.OutOrStdout()
			for _, info := range infos {
				fmt.Fprintf(out, "%-24s %-8s %-16v %d bytes\n", info.Name, info.DType, info.Shape, info.Size())
			}
			total := lo.SumBy(infos, func(i serialization.TensorInfo) int64 { return i.Size() })
			fmt.Fprintf(out, "%d tensors, %d bytes\n", len(infos), total)

			keys := lo.Keys(r.Metadata())
			slices.Sort(keys)
			for _, k := range keys {
				if k != serialization.ChecksumKey {
					fmt.Fprintf(out, "meta %s=%s\n", k, r.Metadata()[k])
				}
			}
			if err := r.Verify(); err != nil {
				return err
			}
			fmt.Fprintln(out, "checksum ok")
			return nil
		},
	}
}

// withAllocator resolves the --allocator flag, runs fn and tears down
// stateful allocators afterwards.
func withAllocator(g *globalFlags, fn func(native.Allocator) error) error {
	opts := []native.Option{native.WithLogger(slog.Default())}
	switch g.allocator {
	case "arena":
		a, err := native.NewArena(g.arenaSize, opts...)
		if err != nil {
			return err
		}
		if err := fn(a); err != nil {
			_ = a.Close()
			return err
		}
		slog.Debug("arena usage", slog.Int("used", a.Used()), slog.Int("cap", a.Cap()))
		return a.Close()
	case "webgpu":
		if !gpu.IsAvailable() {
			return fmt.Errorf("webgpu: %w", native.ErrUnavailable)
		}
		a, err := gpu.New(opts...)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(a)
	default:
		a, err := native.Lookup(g.allocator, opts...)
		if err != nil {
			return err
		}
		return fn(a)
	}
}
