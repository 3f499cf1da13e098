// Command vehicle drives the compiler pipeline end to end: lex, parse,
// scope-check, elaborate, normalise, lower to VNNLib, and print SMT-Lib,
// for every property declared in a vehicle.yaml project.
//
// Grounded on cmd/funxy/main.go's overall shape (load source, run the
// pipeline, report diagnostics, exit non-zero on failure) but much
// simpler: there is exactly one thing to do (compile a project to
// SMT-Lib), not a dozen CLI modes (-c/-r/build/test/-e/...), so this
// driver has no flag-dispatch table — just a project path argument and
// a couple of env-style toggles, the same bare os.Args handling the
// teacher itself uses rather than a flag-parsing dependency (the
// teacher's own go.mod never carries one either).
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Yiergot/vehicle/internal/cache"
	"github.com/Yiergot/vehicle/internal/config"
	"github.com/Yiergot/vehicle/internal/elaborate"
	"github.com/Yiergot/vehicle/internal/normalise"
	"github.com/Yiergot/vehicle/internal/parser"
	"github.com/Yiergot/vehicle/internal/scope"
	"github.com/Yiergot/vehicle/internal/smtlib"
	"github.com/Yiergot/vehicle/internal/symbols"
	"github.com/Yiergot/vehicle/internal/verifier"
	"github.com/Yiergot/vehicle/internal/verrors"
	"github.com/Yiergot/vehicle/internal/vlog"
	"github.com/Yiergot/vehicle/internal/vnnlib"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Vehicle %s\n", config.Version)
	fmt.Fprintf(os.Stderr, "Usage: vehicle [project.yaml]\n")
	fmt.Fprintf(os.Stderr, "  -help, --help    show this message\n")
	fmt.Fprintf(os.Stderr, "  -verify          dispatch each compiled property to the project's verifier\n")
}

func main() {
	log := vlog.New(os.Stderr)

	projectPath := "vehicle.yaml"
	doVerify := false
	for _, arg := range os.Args[1:] {
		switch arg {
		case "-help", "--help", "help":
			usage()
			return
		case "-verify", "--verify":
			doVerify = true
		default:
			projectPath = arg
		}
	}

	if err := run(log, projectPath, doVerify); err != nil {
		log.Errorf("%s", err)
		os.Exit(1)
	}
}

func run(log *vlog.Logger, projectPath string, doVerify bool) error {
	log.Infof("compiling project %s", projectPath)

	proj, err := LoadProject(projectPath)
	if err != nil {
		return err
	}

	projectDir := filepath.Dir(projectPath)
	sourcePath := proj.Source
	if !filepath.IsAbs(sourcePath) {
		sourcePath = filepath.Join(projectDir, sourcePath)
	}
	src, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("reading source file %q: %w", sourcePath, err)
	}

	var declCache *cache.Cache
	if proj.Cache != "" {
		cachePath := proj.Cache
		if !filepath.IsAbs(cachePath) {
			cachePath = filepath.Join(projectDir, cachePath)
		}
		declCache, err = cache.Open(cachePath)
		if err != nil {
			return err
		}
		defer declCache.Close()
	}

	var verifierClient verifier.Client
	if doVerify {
		if proj.Verifier == nil {
			return fmt.Errorf("-verify requested but project %q declares no verifier", projectPath)
		}
		importDir := proj.Verifier.ImportDir
		if importDir == "" {
			importDir = projectDir
		} else if !filepath.IsAbs(importDir) {
			importDir = filepath.Join(projectDir, importDir)
		}
		protoPath := proj.Verifier.Proto
		if !filepath.IsAbs(protoPath) {
			protoPath = filepath.Join(projectDir, protoPath)
		}
		verifierClient, err = verifier.Dial(verifier.Config{
			Target:        proj.Verifier.Target,
			ProtoFile:     protoPath,
			ImportPath:    importDir,
			ServiceMethod: proj.Verifier.Method,
		})
		if err != nil {
			return err
		}
		defer verifierClient.Close()
	}

	prog, err := parser.ParseProgram(sourcePath, string(src))
	if err != nil {
		return fmt.Errorf("[%s] %w", verrors.CategoryScope, err)
	}

	decls := symbols.NewTable()
	scoped, err := scope.NewChecker(decls).CheckProgram(prog)
	if err != nil {
		return reportVehicleError(err)
	}

	elaborated, err := elaborate.ElaborateProgram(decls, scoped)
	if err != nil {
		return reportVehicleError(err)
	}

	norm := normalise.New(decls)
	normalised, err := norm.Program(elaborated)
	if err != nil {
		return reportVehicleError(err)
	}

	if declCache != nil {
		memoizeDeclarations(declCache, normalised, log)
	}

	compiled, errs := vnnlib.CompileProgram(normalised, decls, norm)
	for _, cerr := range errs {
		log.Errorf("%s", reportVehicleError(cerr))
	}
	if len(compiled) == 0 {
		return fmt.Errorf("no property compiled successfully")
	}

	outputDir := proj.Output
	if !filepath.IsAbs(outputDir) {
		outputDir = filepath.Join(projectDir, outputDir)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %q: %w", outputDir, err)
	}

	for _, c := range compiled {
		out, err := smtlib.Print(c)
		if err != nil {
			log.Errorf("%s", reportVehicleError(err))
			continue
		}
		if err := writeOutputs(outputDir, out); err != nil {
			return err
		}
		log.Infof("wrote %s.smt2 (networks: %v)", out.PropertyID, out.MetaNetwork)

		if verifierClient != nil {
			res, err := verifierClient.Verify(context.Background(), out.PropertyID, out.Script, out.MetaNetwork)
			if err != nil {
				log.Errorf("verifying %s: %s", out.PropertyID, err)
				continue
			}
			log.Infof("%s: %s", out.PropertyID, res.Status)
		}
	}

	return nil
}

func writeOutputs(outDir string, out *smtlib.Output) error {
	scriptPath := filepath.Join(outDir, out.PropertyID+".smt2")
	if err := os.WriteFile(scriptPath, []byte(out.Script), 0o644); err != nil {
		return fmt.Errorf("writing %q: %w", scriptPath, err)
	}

	sidecar, err := smtlib.MarshalSidecar(out)
	if err != nil {
		return fmt.Errorf("marshaling sidecar for %q: %w", out.PropertyID, err)
	}
	sidecarPath := filepath.Join(outDir, out.PropertyID+".yaml")
	if err := os.WriteFile(sidecarPath, []byte(sidecar), 0o644); err != nil {
		return fmt.Errorf("writing %q: %w", sidecarPath, err)
	}
	return nil
}

func reportVehicleError(err error) error {
	if ve, ok := err.(verrors.VehicleError); ok {
		return fmt.Errorf("[%s] %w", ve.Category(), ve)
	}
	return err
}
