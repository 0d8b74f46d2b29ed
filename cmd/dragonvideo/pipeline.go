package main

import (
	"context"
	"sync"

	"github.com/tauraamui/dragonvideo/pkg/configdef"
	"github.com/tauraamui/dragonvideo/pkg/log"
	"github.com/tauraamui/dragonvideo/pkg/video"
)

// runPipelines opens every enabled source against its configured
// output and pumps frames until the context is cancelled. The
// returned channel closes once every pipeline has shut down.
func runPipelines(ctx context.Context, sources []configdef.Source) chan struct{} {
	stopped := make(chan struct{})
	wg := sync.WaitGroup{}

	for _, source := range sources {
		if source.Disabled {
			log.Warn("Source [%s] is disabled, skipping...", source.Title)
			continue
		}
		wg.Add(1)
		go func(source configdef.Source) {
			defer wg.Done()
			if err := runPipeline(ctx, source); err != nil {
				log.Error("Pipeline [%s] failed: %v", source.Title, err)
			}
		}(source)
	}

	go func() {
		wg.Wait()
		close(stopped)
	}()
	return stopped
}

func runPipeline(ctx context.Context, source configdef.Source) error {
	input, err := video.OpenVideoInput(source.URI)
	if err != nil {
		return err
	}
	defer input.Close()

	output, err := video.OpenVideoOutput(source.Output)
	if err != nil {
		return err
	}
	defer output.Close()

	idx, err := output.AddStream(input.Width(), input.Height(), input.PixFormat().Format)
	if err != nil {
		return err
	}
	stream, err := output.Stream(idx)
	if err != nil {
		return err
	}

	if err := input.Start(); err != nil {
		return err
	}
	defer func() {
		if err := input.Stop(); err != nil {
			log.Error("Stopping source [%s]: %v", source.Title, err)
		}
	}()

	log.Info("Recording [%s] (%s -> %s)", source.Title, source.URI, source.Output)

	// stop unblocks any in-flight waiting grab once ctx is done
	go func() {
		<-ctx.Done()
		if err := input.Stop(); err != nil {
			log.Error("Stopping source [%s]: %v", source.Title, err)
		}
	}()

	frame := make([]byte, input.SizeBytes())
	for ctx.Err() == nil {
		if !input.GrabNext(frame, true) {
			continue
		}
		err := stream.WriteImage(frame, input.Width(), input.Height(), input.PixFormat().Format, -1)
		if err != nil {
			log.Error("Writing frame for [%s]: %v", source.Title, err)
		}
	}
	return nil
}
