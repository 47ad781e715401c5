// Copyright (c) 2025 Girderworks and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"context"
	"net/http"

	"github.com/girderworks/girder"
)

// Serve adapts a supervised endpoint into a girder.Runtime. The endpoint
// is started when the runtime runs and stopped once the runtime's
// context is cancelled.
func Serve(sup *Supervisor, appID, endpointID string, h http.Handler) girder.Runtime {
	return girder.RuntimeFunc(func(ctx context.Context) error {
		err := sup.Start(ctx, appID, endpointID, h)
		if err != nil {
			return err
		}

		<-ctx.Done()

		// ctx is done at this point so shutdown gets a fresh one
		return sup.Stop(context.Background(), endpointID)
	})
}
