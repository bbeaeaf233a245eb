package web

import (
	"strconv"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"mlm-landing/internal/landing"
	"mlm-landing/internal/staking"
	"mlm-landing/internal/wallet"
)

const siteTitle = "Money Loving Monkeys"

// FailureMessage replaces the page when rendering fails.
const FailureMessage = "Something went wrong. Please check the console for more information."

func layout(title string, body ...g.Node) g.Node {
	return Doctype(
		HTML(Lang("en"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
				TitleEl(g.Text(title)),
				Script(Src("https://cdn.tailwindcss.com")),
			),
			Body(body...),
		),
	)
}

// renderPage builds the whole page for one session state.
func renderPage(st State) g.Node {
	var content g.Node
	if st.Shell.Page == landing.PageMiner {
		content = stakingPage(st.Shell.Panel, st.Wallet)
	} else {
		content = homePage(st.Shell)
	}

	return layout(siteTitle,
		Div(Class("min-h-screen flex flex-col bg-gray-900 text-white"),
			siteHeader(st.Shell),
			content,
			siteFooter(),
		),
		liveScript(),
	)
}

// renderFailure is the static error boundary page. ref must be a token
// the server generated.
func renderFailure(ref string) g.Node {
	return layout(siteTitle,
		H1(g.Text(FailureMessage)),
		Script(g.Rawf(`console.error("render failed, reference %s");`, ref)),
	)
}

func headerClasses(scrolled bool) (bar, title string) {
	if scrolled {
		return "bg-gray-900/70 backdrop-blur-md h-16", "text-xl"
	}
	return "bg-gray-900 h-24", "text-3xl"
}

func siteHeader(s landing.Snapshot) g.Node {
	bar, title := headerClasses(s.Scrolled)

	return Header(ID("site-header"),
		Class("fixed top-0 left-0 right-0 z-50 transition-all duration-300 ease-in-out "+bar),
		Div(Class("container mx-auto px-4 h-full flex items-center justify-between"),
			H1(ID("site-title"), Class("font-bold transition-all duration-300 ease-in-out "+title+" text-yellow-400"),
				g.Text(siteTitle),
			),
			Div(Class("flex items-center"),
				Div(Class("mr-4 w-8 h-8 bg-blue-500 rounded-full transition-transform duration-300 hover:scale-110")),
				Nav(Class("hidden md:block"),
					Ul(Class("flex space-x-4"),
						navItem(landing.PageHome, "Home", "text-gray-300 hover:text-white"),
						navItem(landing.PageMiner, "Miner", "text-gray-300 hover:text-white"),
					),
				),
				postForm("/menu", Class("md:hidden"),
					Button(Type("submit"), Class("bg-yellow-400 text-gray-900 p-2 rounded"),
						g.If(s.MenuOpen, iconClose()),
						g.If(!s.MenuOpen, iconMenu()),
						Span(Class("sr-only"), g.Text("Toggle menu")),
					),
				),
			),
		),
		g.If(s.MenuOpen,
			Div(ID("mobile-menu"), Class("md:hidden fixed inset-0 z-40 bg-gray-900/70 backdrop-blur-md"),
				Nav(Class("container mx-auto px-4 pt-24"),
					Ul(Class("space-y-4"),
						navItem(landing.PageHome, "Home", "block text-2xl text-gray-300 hover:text-white py-2"),
						navItem(landing.PageMiner, "Miner", "block text-2xl text-gray-300 hover:text-white py-2"),
					),
				),
			),
		),
	)
}

func navItem(page landing.Page, label, class string) g.Node {
	return Li(
		postForm("/nav", nil,
			Input(Type("hidden"), Name("page"), Value(string(page))),
			Button(Type("submit"), Class(class), g.Text(label)),
		),
	)
}

func homePage(s landing.Snapshot) g.Node {
	return Main(Class("flex-grow pt-24"),
		Div(Class("w-full bg-white h-64 mb-12")),
		Div(Class("container mx-auto px-4 max-w-4xl"),
			Div(Class("flex flex-col items-center mb-12"),
				H2(Class("text-6xl font-bold mb-8 text-center text-yellow-400"), g.Text("Art Reveal:")),
				Div(Class("flex justify-center space-x-4 mb-4"),
					g.Map(s.Countdown.Units(), func(u landing.Unit) g.Node {
						return Div(Class("text-center"),
							Div(Class("bg-yellow-400 text-gray-900 text-4xl font-bold p-4 rounded-lg w-24"),
								Span(Class("countdown-number"), Data("field", "countdown-"+u.Label), g.Text(landing.Pad(u.Value))),
							),
							Div(Class("text-sm mt-2 uppercase"), g.Text(u.Label)),
						)
					}),
				),
				Div(Class("text-center mb-8"),
					P(Class("text-4xl mb-2"), g.Text("or")),
					Div(Class("flex items-center justify-center space-x-2 text-3xl font-bold"),
						externalLink("https://twitter.com", "text-blue-400 hover:text-blue-300", iconTwitter()),
						Span(g.Text("followers: "),
							Span(Data("field", "followers"), g.Text(strconv.Itoa(s.Followers))),
							g.Textf("/%d", s.FollowerLimit),
						),
					),
				),
			),
			Div(Class("space-y-6 px-4 sm:px-6 lg:px-8 border-2 border-gray-700 rounded-lg p-6"),
				P(g.Text("Welcome to Money Loving Monkeys, the most bananas NFT project in the crypto jungle! Our collection features 10,000 unique, algorithmically generated primates with a passion for finance.")),
				P(g.Text("Each Money Loving Monkey is your ticket to exclusive benefits in our ecosystem, from our banana-backed DeFi platform to DAO voting rights.")),
				Div(Class("w-full h-64 bg-white mb-6")),
				P(g.Text("Get ready for our big reveal and join our community. In the jungle of NFTs, it's not just about monkey business, it's about monkey finance!")),
			),
			Div(Class("mt-12"),
				H3(Class("text-3xl font-bold mb-4 text-center"), g.Text("Our partners:")),
				Div(Class("relative h-40 overflow-hidden"),
					Div(ID("carousel"), Class("absolute flex space-x-4 transition-transform duration-1000 ease-linear"),
						Style(carouselTransform(s.Carousel)),
						g.Map(make([]struct{}, s.CarouselTiles), func(struct{}) g.Node {
							return Div(Class("w-40 h-40 bg-gray-500 flex-shrink-0"))
						}),
					),
				),
			),
		),
	)
}

func carouselTransform(pos int) string {
	return "transform: translateX(-" + strconv.Itoa(pos) + "px)"
}

func stakingPage(p *staking.Snapshot, w wallet.Snapshot) g.Node {
	if p == nil {
		return Main(Class("flex-grow pt-24"))
	}

	return Div(Class("flex-grow flex items-center justify-center py-24 px-4"),
		Div(Class("max-w-sm w-full bg-gray-800 rounded-lg shadow-lg overflow-hidden relative"),
			Div(Class("p-6"),
				H2(Class("text-3xl font-bold mb-6 text-center text-yellow-400"), g.Text("SOL Staking")),
				Div(Class("space-y-4"),
					walletControl(w),
					g.If(w.Connected, g.Group(connectedPanel(p, w))),
					g.If(!w.Connected,
						P(Class("text-center text-gray-400"), g.Text(staking.Message(staking.ActionStake, staking.ErrWalletNotConnected))),
					),
				),
			),
			Div(ID("panel-error"), Class("bg-red-500 text-white p-3 text-center"),
				g.If(p.Error == "", g.Attr("hidden")),
				Span(Data("field", "error"), g.Text(p.Error)),
			),
		),
	)
}

func walletControl(w wallet.Snapshot) g.Node {
	if w.Connected {
		return postForm("/wallet/disconnect", nil,
			Button(Type("submit"), Class("w-full py-3 font-bold bg-purple-700 hover:bg-purple-600 rounded-lg"),
				g.Text(w.Short),
			),
		)
	}
	return postForm("/wallet/connect", Class("space-y-2"),
		Input(Type("text"), Name("pubkey"), Placeholder("Wallet public key"), g.Attr("required"),
			Class("w-full bg-gray-700 p-3 rounded-lg"),
		),
		Button(Type("submit"), Class("w-full py-3 font-bold bg-purple-700 hover:bg-purple-600 rounded-lg"),
			g.Text("Select Wallet"),
		),
	)
}

func connectedPanel(p *staking.Snapshot, w wallet.Snapshot) []g.Node {
	return []g.Node{
		Div(
			H3(Class("text-lg mb-1"), g.Text("Your Balance")),
			Div(Class("bg-gray-700 p-3 rounded-lg text-xl font-bold"),
				Span(Data("field", "balance"), g.Text(w.Balance)), g.Text(" SOL"),
			),
		),
		postForm("/stake", Class("space-y-4"),
			Div(
				H3(Class("text-lg mb-1"), g.Text("Stake Amount (SOL)")),
				Input(Type("number"), Name("amount"), Value(p.StakeInput), g.Attr("step", "any"),
					Class("w-full bg-gray-700 p-3 rounded-lg text-xl font-bold appearance-none"),
				),
			),
			Button(Type("submit"), Data("action", "true"), g.If(p.Loading, Disabled()),
				Class("w-full py-3 text-lg font-bold bg-yellow-400 text-gray-900 hover:bg-yellow-500 transition-transform duration-300 transform hover:scale-105 rounded-lg"),
				Span(Data("field", "stake-label"), g.Text(stakeLabel(p.Loading))),
			),
		),
		Div(
			H3(Class("text-lg mb-1"), g.Text("Staked Amount")),
			Div(Class("bg-gray-700 p-3 rounded-lg text-xl font-bold"),
				Span(Data("field", "staked"), g.Text(p.Staked)), g.Text(" SOL"),
			),
		),
		Div(
			H3(Class("text-lg mb-1"), g.Text("Current Rewards")),
			Div(Class("bg-gray-700 p-3 rounded-lg text-xl font-bold flex items-center justify-between"),
				Span(Span(Data("field", "reward"), g.Text(p.Reward)), g.Text(" SOL")),
				iconTrendingUp(),
			),
		),
		Div(Class("flex space-x-4"),
			actionButton("/compound", "Compound", p.Loading),
			actionButton("/claim", "Claim", p.Loading),
		),
		postForm("/unstake", Class("flex space-x-4"),
			Input(Type("number"), Name("amount"), Placeholder("0.0"), g.Attr("step", "any"),
				Class("flex-1 min-w-0 bg-gray-700 p-2 rounded-lg"),
			),
			Button(Type("submit"), Data("action", "true"), g.If(p.Loading, Disabled()),
				Class("flex-1 py-2 text-base font-semibold bg-gray-700 hover:bg-gray-600 transition-colors duration-300 rounded-lg"),
				g.Text("Unstake"),
			),
		),
		Div(Class("text-center text-sm text-gray-400"),
			P(g.Text("Connected to: "+w.Short)),
			P(g.Text("Network: "+w.Network)),
			g.If(!w.AccountExists, P(Class("text-yellow-400"), g.Text("Account not funded on "+w.Network))),
			P(g.Text("Compound Streak: "), Span(Data("field", "streak"), g.Text(strconv.Itoa(p.CompoundStreak)))),
		),
	}
}

func stakeLabel(loading bool) string {
	if loading {
		return "Processing..."
	}
	return "Stake SOL"
}

func actionButton(path, label string, loading bool) g.Node {
	return postForm(path, Class("flex-1"),
		Button(Type("submit"), Data("action", "true"), g.If(loading, Disabled()),
			Class("w-full py-2 text-base font-semibold bg-gray-700 hover:bg-gray-600 transition-colors duration-300 rounded-lg"),
			g.Text(label),
		),
	)
}

func siteFooter() g.Node {
	return Footer(Class("bg-gray-800 py-8 mt-12"),
		Div(Class("container mx-auto px-4 flex justify-center space-x-8"),
			externalLink("https://twitter.com", "text-blue-400 hover:text-blue-300", iconTwitter()),
			externalLink("https://discord.com", "text-indigo-400 hover:text-indigo-300", iconDiscord()),
			externalLink("https://telegram.org", "text-sky-400 hover:text-sky-300", iconMessage()),
		),
	)
}

func externalLink(href, class string, children ...g.Node) g.Node {
	return A(Href(href), Target("_blank"), Rel("noopener noreferrer"), Class(class), g.Group(children))
}

// postForm is a form posting to path. attrs may be nil.
func postForm(path string, attrs g.Node, children ...g.Node) g.Node {
	return g.El("form", Method("post"), Action(path), attrs, g.Group(children))
}

func icon(class string, paths ...string) g.Node {
	return g.El("svg", g.Attr("xmlns", "http://www.w3.org/2000/svg"), g.Attr("viewBox", "0 0 24 24"),
		g.Attr("fill", "none"), g.Attr("stroke", "currentColor"), g.Attr("stroke-width", "2"),
		g.Attr("stroke-linecap", "round"), g.Attr("stroke-linejoin", "round"), Class(class),
		g.Map(paths, func(d string) g.Node {
			return g.El("path", g.Attr("d", d))
		}),
	)
}

func iconMenu() g.Node {
	return icon("h-6 w-6", "M4 6h16", "M4 12h16", "M4 18h16")
}

func iconClose() g.Node {
	return icon("h-6 w-6", "M18 6 6 18", "m6 6 12 12")
}

func iconTwitter() g.Node {
	return icon("w-8 h-8", "M22 4s-.7 2.1-2 3.4c1.6 10-9.4 17.3-18 11.6 2.2.1 4.4-.6 6-2C3 15.5.5 9.6 3 5c2.2 2.6 5.6 4.1 9 4-.9-4.2 4-6.6 7-3.8 1.1 0 3-1.2 3-1.2z")
}

func iconMessage() g.Node {
	return icon("w-8 h-8", "M7.9 20A9 9 0 1 0 4 16.1L2 22Z")
}

func iconTrendingUp() g.Node {
	return icon("text-green-400 w-5 h-5", "m22 7-8.5 8.5-5-5L2 17", "M16 7h6v6")
}

func iconDiscord() g.Node {
	return g.El("svg", Class("w-8 h-8"), g.Attr("viewBox", "0 0 24 24"), g.Attr("fill", "currentColor"),
		g.El("path", g.Attr("d", discordPath)),
	)
}

const discordPath = "M20.317 4.37a19.791 19.791 0 0 0-4.885-1.515a.074.074 0 0 0-.079.037c-.21.375-.444.864-.608 1.25a18.27 18.27 0 0 0-5.487 0a12.64 12.64 0 0 0-.617-1.25a.077.077 0 0 0-.079-.037A19.736 19.736 0 0 0 3.677 4.37a.07.07 0 0 0-.032.027C.533 9.046-.32 13.58.099 18.057a.082.082 0 0 0 .031.057a19.9 19.9 0 0 0 5.993 3.03a.078.078 0 0 0 .084-.028a14.09 14.09 0 0 0 1.226-1.994a.076.076 0 0 0-.041-.106a13.107 13.107 0 0 1-1.872-.892a.077.077 0 0 1-.008-.128a10.2 10.2 0 0 0 .372-.292a.074.074 0 0 1 .077-.01c3.928 1.793 8.18 1.793 12.062 0a.074.074 0 0 1 .078.01c.12.098.246.198.373.292a.077.077 0 0 1-.006.127a12.299 12.299 0 0 1-1.873.892a.077.077 0 0 0-.041.107c.36.698.772 1.362 1.225 1.993a.076.076 0 0 0 .084.028a19.839 19.839 0 0 0 6.002-3.03a.077.077 0 0 0 .032-.054c.5-5.177-.838-9.674-3.549-13.66a.061.061 0 0 0-.031-.03zM8.02 15.33c-1.183 0-2.157-1.085-2.157-2.419c0-1.333.956-2.419 2.157-2.419c1.21 0 2.176 1.096 2.157 2.42c0 1.333-.956 2.418-2.157 2.418zm7.975 0c-1.183 0-2.157-1.085-2.157-2.419c0-1.333.955-2.419 2.157-2.419c1.21 0 2.176 1.096 2.157 2.42c0 1.333-.946 2.418-2.157 2.418z"

// liveScript applies pushed state to the page and reports scrolling.
func liveScript() g.Node {
	return Script(g.Raw(`(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws");
  var page = null;
  function set(field, text) {
    var el = document.querySelector('[data-field="' + field + '"]');
    if (el && el.textContent !== text) el.textContent = text;
  }
  function pad(v) { return v < 10 ? "0" + v : String(v); }
  ws.onmessage = function (ev) {
    var st = JSON.parse(ev.data);
    var sh = st.shell;
    if (page !== null && page !== sh.page) { location.reload(); return; }
    page = sh.page;
    var header = document.getElementById("site-header");
    var title = document.getElementById("site-title");
    header.classList.toggle("h-16", sh.scrolled);
    header.classList.toggle("backdrop-blur-md", sh.scrolled);
    header.classList.toggle("bg-gray-900/70", sh.scrolled);
    header.classList.toggle("bg-gray-900", !sh.scrolled);
    header.classList.toggle("h-24", !sh.scrolled);
    title.classList.toggle("text-xl", sh.scrolled);
    title.classList.toggle("text-3xl", !sh.scrolled);
    ["days", "hours", "minutes", "seconds"].forEach(function (u) {
      set("countdown-" + u, pad(sh.countdown[u]));
    });
    set("followers", String(sh.followers));
    var car = document.getElementById("carousel");
    if (car) car.style.transform = "translateX(-" + sh.carousel + "px)";
    var p = sh.panel;
    if (p) {
      set("staked", p.staked);
      set("reward", p.reward);
      set("streak", String(p.compound_streak));
      set("stake-label", p.loading ? "Processing..." : "Stake SOL");
      set("error", p.error || "");
      var box = document.getElementById("panel-error");
      if (box) box.hidden = !p.error;
      document.querySelectorAll('[data-action]').forEach(function (b) { b.disabled = p.loading; });
    }
    if (st.wallet) set("balance", st.wallet.balance);
  };
  var pending = false;
  window.addEventListener("scroll", function () {
    if (pending) return;
    pending = true;
    requestAnimationFrame(function () {
      pending = false;
      if (ws.readyState === WebSocket.OPEN) {
        ws.send(JSON.stringify({ type: "scroll", y: Math.round(window.scrollY) }));
      }
    });
  });
})();`))
}
