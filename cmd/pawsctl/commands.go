package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"paws/internal/features"
	"paws/internal/model"
	"paws/internal/storage"
	"paws/internal/trainconfig"
	"paws/internal/weights"
	pawsapi "paws/pkg/paws"
)

func newInitCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the model store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := openClient(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer client.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "initialized %s store\n", client.Config().Store.Kind)
			return nil
		},
	}
}

func newImportCmd(flags *globalFlags) *cobra.Command {
	var file, path string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a JSON network as a frozen supervised or prior-ratio model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			if path == "" {
				path = file
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			network, err := storage.DecodeNetwork(data)
			if err != nil {
				return fmt.Errorf("decode %s: %w", file, err)
			}
			client, err := openClient(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer client.Close()
			if err := client.ImportNetwork(cmd.Context(), path, network); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s as %s\n", file, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON network file")
	cmd.Flags().StringVar(&path, "path", "", "model path in the store (defaults to --file)")
	return cmd
}

func newBuildCmd(flags *globalFlags) *cobra.Command {
	var (
		supervised  []string
		supervised2 []string
		m1, m2      float64
		kappa       string
		fraction    float64
		runID       string
		record      bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Assemble a semi-weakly model and report its parameters and artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := openClient(ctx, flags)
			if err != nil {
				return err
			}
			defer client.Close()

			req := pawsapi.BuildRequest{
				SupervisedPaths:  supervised,
				SupervisedPaths2: supervised2,
				Kappa:            kappa,
			}
			if cmd.Flags().Changed("m1") {
				req.M1GeV = &m1
			}
			if cmd.Flags().Changed("m2") {
				req.M2GeV = &m2
			}
			m, err := client.BuildSemiWeakly(ctx, req)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("signal-fraction") {
				if err := m.SetValues(map[weights.ParameterID]float64{weights.Mu: fraction}); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "artifacts: %s\n", strings.Join(m.ArtifactNames(), ", "))
			values := m.Values()
			for _, p := range m.TrainableWeights() {
				fmt.Fprintf(out, "%-16s kernel=%-12.6g value=%.6g\n", p.WeightName(), p.Kernel, values[p.ID])
			}
			fmt.Fprintf(out, "penalty: %.6g\n", m.Penalty())
			if record && runID == "" {
				runID = pawsapi.NewRunID()
			}
			if runID != "" {
				if err := client.RecordParameters(ctx, runID, 0, m); err != nil {
					return err
				}
				fmt.Fprintf(out, "recorded initial parameters for run %s\n", runID)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&supervised, "supervised", nil, "supervised model paths of the first decay mode")
	f.StringSliceVar(&supervised2, "supervised2", nil, "supervised model paths of the second decay mode")
	f.Float64Var(&m1, "m1", 0, "initial first mass in GeV")
	f.Float64Var(&m2, "m2", 0, "initial second mass in GeV")
	f.StringVar(&kappa, "kappa", "", "kappa literal, inferred or sampled (comma separated per decay mode)")
	f.Float64Var(&fraction, "signal-fraction", 0, "initial signal fraction mu (overrides the configured log mu kernel)")
	f.StringVar(&runID, "run-id", "", "record the initial parameters under this run")
	f.BoolVar(&record, "record", false, "record the initial parameters under a new run id")
	return cmd
}

func newTrainConfigCmd(flags *globalFlags) *cobra.Command {
	var (
		modelType string
		write     bool
	)
	cmd := &cobra.Command{
		Use:   "train-config",
		Short: "Print the training configuration of a model type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := model.ParseModelType(modelType)
			if err != nil {
				return err
			}
			client, err := openClient(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer client.Close()

			cfg, err := client.TrainConfig(parsed)
			if err != nil {
				return err
			}
			if write {
				path, err := client.WriteTrainConfig(cfg)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			}
			data, err := trainconfig.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&modelType, "model-type", string(model.SemiWeakly), "dedicated_supervised, param_supervised, ideal_weakly, semi_weakly or prior_ratio")
	cmd.Flags().BoolVar(&write, "write", false, "write the configuration into the checkpoint directory")
	return cmd
}

func newTraceCmd(flags *globalFlags) *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the recorded parameter trajectory of a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if runID == "" {
				return fmt.Errorf("--run-id is required")
			}
			client, err := openClient(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer client.Close()

			trace, err := client.ParameterTrace(cmd.Context(), runID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, snapshot := range trace {
				names := make([]string, 0, len(snapshot.Weights))
				for name := range snapshot.Weights {
					names = append(names, name)
				}
				sort.Slice(names, func(i, j int) bool {
					a, _ := weights.ParseWeightName(names[i])
					b, _ := weights.ParseWeightName(names[j])
					return a < b
				})
				parts := make([]string, len(names))
				for i, name := range names {
					parts[i] = fmt.Sprintf("%s=%.6g", name, snapshot.Weights[name])
				}
				fmt.Fprintf(out, "epoch=%d %s\n", snapshot.Epoch, strings.Join(parts, " "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "run identifier")
	return cmd
}

func newEvaluateCmd(flags *globalFlags) *cobra.Command {
	var (
		featureFile string
		columns     []string
		noHeader    bool
		supervised  []string
		supervised2 []string
		m1, m2      float64
		kappa       string
		artifacts   []string
		output      string
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate model artifacts on a CSV feature table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if featureFile == "" {
				return fmt.Errorf("--features is required")
			}
			in, err := os.Open(featureFile)
			if err != nil {
				return err
			}
			x, _, err := features.ReadCSV(in, features.ReadOptions{HasHeader: !noHeader, ColumnNames: columns})
			in.Close()
			if err != nil {
				return fmt.Errorf("read %s: %w", featureFile, err)
			}

			ctx := cmd.Context()
			client, err := openClient(ctx, flags)
			if err != nil {
				return err
			}
			defer client.Close()

			req := pawsapi.BuildRequest{
				SupervisedPaths:  supervised,
				SupervisedPaths2: supervised2,
				Kappa:            kappa,
			}
			if cmd.Flags().Changed("m1") {
				req.M1GeV = &m1
			}
			if cmd.Flags().Changed("m2") {
				req.M2GeV = &m2
			}
			m, err := client.BuildSemiWeakly(ctx, req)
			if err != nil {
				return err
			}
			if len(artifacts) == 0 {
				artifacts = m.ArtifactNames()
			}
			outputs := make([][]float64, 0, len(artifacts))
			for _, name := range artifacts {
				artifact, ok := m.Artifact(name)
				if !ok {
					return fmt.Errorf("unknown artifact %q (have %s)", name, strings.Join(m.ArtifactNames(), ", "))
				}
				values, err := artifact.Forward(x)
				if err != nil {
					return fmt.Errorf("evaluate %s: %w", name, err)
				}
				outputs = append(outputs, values)
			}

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return features.WriteCSV(out, artifacts, outputs...)
		},
	}
	f := cmd.Flags()
	f.StringVar(&featureFile, "features", "", "CSV feature table, one event per row")
	f.StringSliceVar(&columns, "columns", nil, "feature columns to read by header name (defaults to all)")
	f.BoolVar(&noHeader, "no-header", false, "the feature table has no header row")
	f.StringSliceVar(&supervised, "supervised", nil, "supervised model paths of the first decay mode")
	f.StringSliceVar(&supervised2, "supervised2", nil, "supervised model paths of the second decay mode")
	f.Float64Var(&m1, "m1", 0, "first mass in GeV")
	f.Float64Var(&m2, "m2", 0, "second mass in GeV")
	f.StringVar(&kappa, "kappa", "", "kappa literal, inferred or sampled (comma separated per decay mode)")
	f.StringSliceVar(&artifacts, "artifact", nil, "artifacts to evaluate (defaults to all)")
	f.StringVar(&output, "output", "", "write the outputs to this file instead of stdout")
	return cmd
}
