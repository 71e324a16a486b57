package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/vanderheijden86/storytour/pkg/debug"
	"github.com/vanderheijden86/storytour/pkg/tour"
)

// hostMarkup is injected when the page lacks the contract elements.
const hostMarkup = `
<div id="tutorial-overlay" class="tutorial-overlay hidden">
  <div class="tutorial-backdrop"></div>
  <div id="tutorial-tooltip" class="tutorial-tooltip" role="dialog" aria-labelledby="tooltip-title">
    <div id="tooltip-arrow" class="tooltip-arrow"></div>
    <h3 id="tooltip-title"></h3>
    <p id="tooltip-description"></p>
    <div class="tooltip-footer">
      <span id="step-counter"></span>
      <button id="skip-tutorial" type="button">Skip</button>
      <button id="prev-step" type="button">Back</button>
      <button id="next-step" type="button">Next</button>
    </div>
  </div>
</div>
<div id="tutorial-notice" class="completion-message hidden" role="status">
  <h3>Welcome aboard!</h3>
  <p>You're all set. Enjoy the stories!</p>
</div>
<div id="tutorial-prompt" class="tutorial-prompt hidden" role="dialog">
  <p>Take a quick tour of the storybook?</p>
  <button id="tutorial-accept" type="button">Yes, show me</button>
  <button id="tutorial-decline" type="button">No thanks</button>
</div>`

const hostStyle = `
.tutorial-overlay { position: fixed; inset: 0; z-index: 1000; }
.tutorial-backdrop { position: absolute; inset: 0; background: rgba(0, 0, 0, 0.55); }
.tutorial-tooltip { position: fixed; z-index: 1002; width: 320px; background: #fff; color: #1f2937;
  border-radius: 12px; padding: 16px 20px; box-shadow: 0 10px 25px rgba(0, 0, 0, 0.2); font: 14px/1.4 sans-serif; }
.tutorial-highlight { position: relative; z-index: 1001; box-shadow: 0 0 0 4px #bd93f9; border-radius: 6px; }
.tooltip-arrow { position: absolute; width: 12px; height: 12px; background: #fff; transform: rotate(45deg); }
.tooltip-arrow.top { top: -6px; left: calc(50% - 6px); }
.tooltip-arrow.bottom { bottom: -6px; left: calc(50% - 6px); }
.tooltip-arrow.left { left: -6px; top: calc(50% - 6px); }
.tooltip-arrow.right { right: -6px; top: calc(50% - 6px); }
.completion-message { position: fixed; top: 20px; right: 20px; z-index: 1003; max-width: 300px; background: #fff;
  padding: 20px; border-radius: 12px; box-shadow: 0 10px 25px rgba(0, 0, 0, 0.2); }
.tutorial-prompt { position: fixed; top: 50%; left: 50%; transform: translate(-50%, -50%); z-index: 1003;
  background: #fff; padding: 24px; border-radius: 12px; box-shadow: 0 10px 25px rgba(0, 0, 0, 0.2); }
.hidden { display: none !important; }`

// EnsureHost injects the overlay, tooltip, notice and prompt markup unless
// the page already provides the overlay element.
func (p *Page) EnsureHost() error {
	script := fmt.Sprintf(`(() => {
		if (document.getElementById(%s)) return false;
		const style = document.createElement('style');
		style.textContent = %s;
		document.head.appendChild(style);
		const wrap = document.createElement('div');
		wrap.innerHTML = %s;
		while (wrap.firstElementChild) document.body.appendChild(wrap.firstElementChild);
		return true;
	})()`, jsString(OverlayID), jsString(hostStyle), jsString(strings.TrimSpace(hostMarkup)))
	var injected bool
	if err := p.eval(script, &injected); err != nil {
		return fmt.Errorf("installing tour markup: %w", err)
	}
	debug.LogIf(injected, "browser: injected tour markup")
	return nil
}

// bindingName is the page-side function that delivers input to Go.
const bindingName = "storytourSignal"

// listenerScript registers the host's input handlers. Each handler posts
// a signal name through the binding. Prompt answers use the names
// "accept" and "decline".
var listenerScript = fmt.Sprintf(`(() => {
	if (window.__storytourBound) return;
	window.__storytourBound = true;
	const send = (name) => window[%[1]s] && window[%[1]s](name);
	const on = (id, name) => {
		const el = document.getElementById(id);
		if (el) el.addEventListener('click', (e) => { e.stopPropagation(); send(name); });
	};
	on(%[2]s, %[3]s);
	on(%[4]s, %[5]s);
	on(%[6]s, %[7]s);
	on(%[8]s, 'accept');
	on(%[9]s, 'decline');
	document.querySelectorAll('.' + %[10]s).forEach(el =>
		el.addEventListener('click', () => send(%[11]s)));
	document.addEventListener('keydown', (e) => {
		if (e.key === 'Escape') send(%[12]s);
		else if (e.key === 'Enter') send(%[13]s);
		else if (e.key === 'ArrowRight') send(%[14]s);
		else if (e.key === 'ArrowLeft') send(%[15]s);
	});
	window.addEventListener('resize', () => send(%[16]s));
})()`,
	jsString(bindingName),
	jsString(NextID), jsString(tour.SignalAdvanceClick.String()),
	jsString(SkipID), jsString(tour.SignalSkipClick.String()),
	jsString(BackID), jsString(tour.SignalBack.String()),
	jsString(AcceptID), jsString(DeclineID),
	jsString(BackdropClass), jsString(tour.SignalBackdropClick.String()),
	jsString(tour.SignalEscape.String()),
	jsString(tour.SignalEnter.String()),
	jsString(tour.SignalAdvance.String()),
	jsString(tour.SignalBack.String()),
	jsString(tour.SignalResize.String()),
)

// Dispatch routes one input name posted by the page to seq.
func Dispatch(seq *tour.Sequencer, name string) bool {
	switch name {
	case "accept":
		seq.AcceptWelcome()
		return true
	case "decline":
		seq.DeclineWelcome()
		return true
	}
	sig, ok := tour.ParseSignal(name)
	if !ok {
		debug.Log("browser: unknown signal %q", name)
		return false
	}
	return seq.Handle(sig)
}

// Bind registers the page's input handlers and routes them to seq through
// loop. The markup must be installed first (EnsureHost). Inputs are posted
// in the order the page sent them and handled on the loop's goroutine,
// never on the DevTools event loop.
func (p *Page) Bind(seq *tour.Sequencer, loop *Loop) error {
	chromedp.ListenTarget(p.ctx, func(ev any) {
		if ev, ok := ev.(*runtime.EventBindingCalled); ok && ev.Name == bindingName {
			name := ev.Payload
			loop.Post(func() { Dispatch(seq, name) })
		}
	})
	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()
	err := chromedp.Run(ctx,
		runtime.AddBinding(bindingName),
		chromedp.Evaluate(listenerScript, nil),
	)
	if err != nil {
		return fmt.Errorf("binding tour input: %w", err)
	}
	return nil
}
