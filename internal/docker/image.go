// Package docker checks the local Docker engine before a --no-pull scan.
package docker

import (
	"context"
	"fmt"

	"github.com/docker/docker/client"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/sirupsen/logrus"
)

// ImageChecker reports whether an image is present in the local engine.
type ImageChecker interface {
	IsImageLocal(ctx context.Context, imageRef string) (bool, error)
}

// EngineChecker implements ImageChecker against the Docker engine from the environment.
type EngineChecker struct{}

var _ ImageChecker = (*EngineChecker)(nil)

// IsImageLocal inspects imageRef in the local engine. A missing image is
// (false, nil); an unreachable engine is returned as an error.
func (EngineChecker) IsImageLocal(ctx context.Context, imageRef string) (bool, error) {
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to create Docker client: %w", err)
	}
	defer cli.Close()

	if _, _, err := cli.ImageInspectWithRaw(ctx, imageRef); err != nil {
		if client.IsErrNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to inspect image %s: %w", imageRef, err)
	}
	return true, nil
}

// Reference joins an image name and tag the way lw-scanner receives them and
// normalises the result, e.g. "alpine" + "3.19" becomes
// "index.docker.io/library/alpine:3.19".
func Reference(imageName, imageTag string) (string, error) {
	ref := imageName
	if imageTag != "" {
		ref = imageName + ":" + imageTag
	}
	tag, err := name.NewTag(ref)
	if err != nil {
		return "", fmt.Errorf("failed to parse image reference %s: %w", ref, err)
	}
	return tag.Name(), nil
}

// WarnIfNotLocal logs a warning when a --no-pull scan targets an image the
// local engine does not have. It never fails the build step.
func WarnIfNotLocal(ctx context.Context, checker ImageChecker, imageName, imageTag string, log logrus.FieldLogger) {
	ref, err := Reference(imageName, imageTag)
	if err != nil {
		log.Debugf("skipping local image check: %v", err)
		return
	}

	local, err := checker.IsImageLocal(ctx, ref)
	if err != nil {
		log.Debugf("skipping local image check: %v", err)
		return
	}
	if !local {
		log.Warnf("image %s is not present locally and --no-pull is set; lw-scanner will likely fail", ref)
	}
}
