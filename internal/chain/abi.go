package chain

// Minimal ABI fragments for the two contracts the gateway talks to. Only the
// functions the service actually calls are declared; names and types mirror
// the deployed PolicastMarketV3 ABI. Static tuples are declared as flat
// outputs, which is wire-compatible with the contract's encoding.

const erc20ABI = `[
	{"name":"allowance","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"type":"uint256"}]},
	{"name":"approve","type":"function","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"type":"bool"}]},
	{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"type":"uint256"}]}
]`

const policastABI = `[
	{"name":"getBettingToken","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"address"}]},
	{"name":"getMarketCount","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"name":"getMarketInfo","type":"function","stateMutability":"view","inputs":[{"name":"_marketId","type":"uint256"}],"outputs":[
		{"name":"question","type":"string"},
		{"name":"description","type":"string"},
		{"name":"endTime","type":"uint256"},
		{"name":"category","type":"uint8"},
		{"name":"optionCount","type":"uint256"},
		{"name":"resolved","type":"bool"},
		{"name":"disputed","type":"bool"},
		{"name":"marketType","type":"uint8"},
		{"name":"invalidated","type":"bool"},
		{"name":"winningOptionId","type":"uint256"},
		{"name":"creator","type":"address"},
		{"name":"earlyResolutionAllowed","type":"bool"}]},
	{"name":"getMarketOption","type":"function","stateMutability":"view","inputs":[{"name":"_marketId","type":"uint256"},{"name":"_optionId","type":"uint256"}],"outputs":[
		{"name":"name","type":"string"},
		{"name":"description","type":"string"},
		{"name":"totalShares","type":"uint256"},
		{"name":"totalVolume","type":"uint256"},
		{"name":"currentPrice","type":"uint256"},
		{"name":"isActive","type":"bool"}]},
	{"name":"getMarketOdds","type":"function","stateMutability":"view","inputs":[{"name":"_marketId","type":"uint256"}],"outputs":[{"type":"uint256[]"}]},
	{"name":"getMarketStatus","type":"function","stateMutability":"view","inputs":[{"name":"_marketId","type":"uint256"}],"outputs":[
		{"name":"isActive","type":"bool"},
		{"name":"isResolved","type":"bool"},
		{"name":"isExpired","type":"bool"},
		{"name":"canTrade","type":"bool"},
		{"name":"canResolve","type":"bool"},
		{"name":"timeRemaining","type":"uint256"}]},
	{"name":"getMarketTiming","type":"function","stateMutability":"view","inputs":[{"name":"_marketId","type":"uint256"}],"outputs":[
		{"name":"createdAt","type":"uint256"},
		{"name":"endTime","type":"uint256"},
		{"name":"timeRemaining","type":"uint256"},
		{"name":"isExpired","type":"bool"},
		{"name":"canResolveEarly","type":"bool"}]},
	{"name":"getUserShares","type":"function","stateMutability":"view","inputs":[{"name":"_marketId","type":"uint256"},{"name":"_user","type":"address"}],"outputs":[{"type":"uint256[]"}]},
	{"name":"getUserPortfolio","type":"function","stateMutability":"view","inputs":[{"name":"_user","type":"address"}],"outputs":[
		{"name":"totalInvested","type":"uint256"},
		{"name":"totalWinnings","type":"uint256"},
		{"name":"realizedPnL","type":"int256"},
		{"name":"unrealizedPnL","type":"int256"},
		{"name":"tradeCount","type":"uint256"}]},
	{"name":"getLPInfo","type":"function","stateMutability":"view","inputs":[{"name":"_marketId","type":"uint256"},{"name":"_lp","type":"address"}],"outputs":[
		{"name":"contribution","type":"uint256"},
		{"name":"rewardsClaimed","type":"bool"},
		{"name":"estimatedRewards","type":"uint256"}]},
	{"name":"getUnresolvedMarkets","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256[]"}]},
	{"name":"calculateAMMBuyCost","type":"function","stateMutability":"view","inputs":[{"name":"_marketId","type":"uint256"},{"name":"_optionId","type":"uint256"},{"name":"_quantity","type":"uint256"}],"outputs":[{"type":"uint256"}]},
	{"name":"calculateAMMSellRevenue","type":"function","stateMutability":"view","inputs":[{"name":"_marketId","type":"uint256"},{"name":"_optionId","type":"uint256"},{"name":"_quantity","type":"uint256"}],"outputs":[{"type":"uint256"}]},
	{"name":"hasUserClaimedWinnings","type":"function","stateMutability":"view","inputs":[{"name":"_marketId","type":"uint256"},{"name":"_user","type":"address"}],"outputs":[{"type":"bool"}]},
	{"name":"createMarket","type":"function","stateMutability":"nonpayable","inputs":[
		{"name":"_question","type":"string"},
		{"name":"_description","type":"string"},
		{"name":"_optionNames","type":"string[]"},
		{"name":"_optionDescriptions","type":"string[]"},
		{"name":"_duration","type":"uint256"},
		{"name":"_category","type":"uint8"},
		{"name":"_marketType","type":"uint8"},
		{"name":"_initialLiquidity","type":"uint256"},
		{"name":"_earlyResolutionAllowed","type":"bool"}],"outputs":[{"type":"uint256"}]},
	{"name":"buyShares","type":"function","stateMutability":"nonpayable","inputs":[{"name":"_marketId","type":"uint256"},{"name":"_optionId","type":"uint256"},{"name":"_quantity","type":"uint256"},{"name":"_maxPricePerShare","type":"uint256"}],"outputs":[]},
	{"name":"sellShares","type":"function","stateMutability":"nonpayable","inputs":[{"name":"_marketId","type":"uint256"},{"name":"_optionId","type":"uint256"},{"name":"_quantity","type":"uint256"},{"name":"_minPricePerShare","type":"uint256"}],"outputs":[]},
	{"name":"ammSwap","type":"function","stateMutability":"nonpayable","inputs":[{"name":"_marketId","type":"uint256"},{"name":"_optionIdIn","type":"uint256"},{"name":"_optionIdOut","type":"uint256"},{"name":"_amountIn","type":"uint256"},{"name":"_minAmountOut","type":"uint256"}],"outputs":[{"name":"amountOut","type":"uint256"}]},
	{"name":"addAMMLiquidity","type":"function","stateMutability":"nonpayable","inputs":[{"name":"_marketId","type":"uint256"},{"name":"_amount","type":"uint256"}],"outputs":[]},
	{"name":"claimWinnings","type":"function","stateMutability":"nonpayable","inputs":[{"name":"_marketId","type":"uint256"}],"outputs":[]},
	{"name":"claimLPRewards","type":"function","stateMutability":"nonpayable","inputs":[{"name":"_marketId","type":"uint256"}],"outputs":[]},
	{"name":"validateMarket","type":"function","stateMutability":"nonpayable","inputs":[{"name":"_marketId","type":"uint256"}],"outputs":[]},
	{"name":"resolveMarket","type":"function","stateMutability":"nonpayable","inputs":[{"name":"_marketId","type":"uint256"},{"name":"_winningOptionId","type":"uint256"}],"outputs":[]},
	{"name":"invalidateMarket","type":"function","stateMutability":"nonpayable","inputs":[{"name":"_marketId","type":"uint256"}],"outputs":[]},
	{"name":"disputeMarket","type":"function","stateMutability":"nonpayable","inputs":[{"name":"_marketId","type":"uint256"},{"name":"_reason","type":"string"}],"outputs":[]}
]`
