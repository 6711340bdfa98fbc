// Copyright 2025 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package txfilter

// knownMethods names the swap entry points of the Uniswap V2 style routers.
var knownMethods = map[Selector]string{
	{0x7f, 0xf3, 0x6a, 0xb5}: "swapExactETHForTokens",
	{0x18, 0xcb, 0xaf, 0xe5}: "swapExactTokensForETH",
	{0x38, 0xed, 0x17, 0x39}: "swapExactTokensForTokens",
	{0x88, 0x03, 0xdb, 0xee}: "swapTokensForExactTokens",
	{0xfb, 0x3b, 0xdb, 0x41}: "swapETHForExactTokens",
	{0x4a, 0x25, 0xd9, 0x4a}: "swapTokensForExactETH",
	{0x5c, 0x11, 0xd7, 0x95}: "swapExactTokensForTokensSupportingFeeOnTransferTokens",
	{0xb6, 0xf9, 0xde, 0x95}: "swapExactETHForTokensSupportingFeeOnTransferTokens",
	{0x79, 0x1a, 0xc9, 0x47}: "swapExactTokensForETHSupportingFeeOnTransferTokens",
}

// MethodName returns the router method behind sel, or its hex form if unknown.
func MethodName(sel Selector) string {
	if name, ok := knownMethods[sel]; ok {
		return name
	}
	return sel.Hex()
}
