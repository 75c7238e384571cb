// Package computeruse translates abstract GUI actions into xdotool and
// ImageMagick import invocations.
//
// A model addresses the screen in a fixed 1280x720 logical viewport. The
// Dispatcher validates each request, queries the physical display size,
// scales coordinates onto it, and runs one chained helper command per
// action. Destructive key combinations are refused unless the request
// carries confirm=true.
//
// Typical use:
//
//	d := computeruse.NewDispatcher(computeruse.WithLogger(logger))
//	res, err := d.Handle(ctx, computeruse.Request{
//	    Action:  computeruse.ActionClick,
//	    Payload: computeruse.FunctionPayload(`{"x":640,"y":360}`),
//	    CallID:  "call-1",
//	})
//
// Every failure is an *ActionError whose Message is meant for the model.
package computeruse
