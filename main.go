// Command authotp serves registration, login and the OTP based password
// reset flow over HTTP.
package main

import (
	"context"

	"github.com/shandysiswandi/authotp/internal/app"
)

func main() {
	a := app.New()
	<-a.Start()

	ctx, cancel := context.WithTimeout(context.Background(), app.ShutdownTimeout)
	defer cancel()

	a.Stop(ctx)
}
