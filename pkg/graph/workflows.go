package graph

// Built-in workflow templates. Treat these as immutable: Instantiate and
// ChainLoRAs copy before writing.
//
// Operator kinds beyond the stock set come from the executor's custom node
// packs: DWPreprocessor (controlnet aux), LivePortrait* (LivePortraitKJ),
// BiRefNetUltra (BiRefNet-ZHO).

// WorkflowDWPose extracts a rendered pose skeleton from an input image.
// Slot: INPUT (filename in the executor input folder). Output: node 3.
var WorkflowDWPose = Graph{
	"1": {
		ClassType: "LoadImage",
		Inputs:    map[string]any{"image": Placeholder("INPUT")},
	},
	"2": {
		ClassType: "DWPreprocessor",
		Inputs: map[string]any{
			"image":       Ref{Node: "1", Slot: 0},
			"detect_hand": "enable",
			"detect_body": "enable",
			"detect_face": "enable",
			"resolution":  512,
		},
	},
	"3": {
		ClassType: "PreviewImage",
		Inputs:    map[string]any{"images": Ref{Node: "2", Slot: 0}},
	},
}

// WorkflowBiRefNet produces an alpha segmentation mask for an input image.
// Slot: INPUT. Output: node 3.
var WorkflowBiRefNet = Graph{
	"1": {
		ClassType: "LoadImage",
		Inputs:    map[string]any{"image": Placeholder("INPUT")},
	},
	"2": {
		ClassType: "BiRefNetUltra",
		Inputs:    map[string]any{"images": Ref{Node: "1", Slot: 0}},
	},
	"3": {
		ClassType: "PreviewImage",
		Inputs:    map[string]any{"images": Ref{Node: "2", Slot: 0}},
	},
}

// WorkflowLivePortrait drives expression via self-reenactment: source and
// driving image are the same file, and STRENGTH (the driving multiplier)
// scales expression intensity.
// Slots: SOURCE, DRIVING, STRENGTH. Output: node 6.
var WorkflowLivePortrait = Graph{
	"1": {
		ClassType: "LoadImage",
		Inputs:    map[string]any{"image": Placeholder("SOURCE")},
	},
	"2": {
		ClassType: "LoadImage",
		Inputs:    map[string]any{"image": Placeholder("DRIVING")},
	},
	"3": {
		ClassType: "LivePortraitLoadModels",
		Inputs:    map[string]any{"precision": "fp16", "pipeline": "human"},
	},
	"4": {
		ClassType: "LivePortraitCropping",
		Inputs: map[string]any{
			"src_image":      Ref{Node: "1", Slot: 0},
			"dri_video":      Ref{Node: "2", Slot: 0},
			"get_mask":       false,
			"driving_smooth": 0.0,
			"models":         Ref{Node: "3", Slot: 0},
		},
	},
	"5": {
		ClassType: "LivePortraitProcess",
		Inputs: map[string]any{
			"src_image":          Ref{Node: "1", Slot: 0},
			"dri_motion":         Ref{Node: "4", Slot: 0},
			"models":             Ref{Node: "3", Slot: 0},
			"relative_motion":    true,
			"do_crop":            true,
			"pasteback":          true,
			"driving_multiplier": Placeholder("STRENGTH"),
		},
	},
	"6": {
		ClassType: "PreviewImage",
		Inputs:    map[string]any{"images": Ref{Node: "5", Slot: 0}},
	},
}

// WorkflowSDXL is plain text-to-image generation without adapters.
// Slots: CHECKPOINT, PROMPT, NEGATIVE, WIDTH, HEIGHT, SEED. Output: node 7.
var WorkflowSDXL = Graph{
	"1": {
		ClassType: "CheckpointLoaderSimple",
		Inputs:    map[string]any{"ckpt_name": Placeholder("CHECKPOINT")},
	},
	"2": {
		ClassType: "CLIPTextEncode",
		Inputs:    map[string]any{"text": Placeholder("PROMPT"), "clip": Ref{Node: "1", Slot: 1}},
	},
	"3": {
		ClassType: "CLIPTextEncode",
		Inputs:    map[string]any{"text": Placeholder("NEGATIVE"), "clip": Ref{Node: "1", Slot: 1}},
	},
	"4": {
		ClassType: "EmptyLatentImage",
		Inputs: map[string]any{
			"width":      Placeholder("WIDTH"),
			"height":     Placeholder("HEIGHT"),
			"batch_size": 1,
		},
	},
	"5": {
		ClassType: "KSampler",
		Inputs: map[string]any{
			"model":        Ref{Node: "1", Slot: 0},
			"positive":     Ref{Node: "2", Slot: 0},
			"negative":     Ref{Node: "3", Slot: 0},
			"latent_image": Ref{Node: "4", Slot: 0},
			"seed":         Placeholder("SEED"),
			"steps":        30,
			"cfg":          7.0,
			"sampler_name": "dpmpp_2m",
			"scheduler":    "karras",
			"denoise":      1.0,
		},
	},
	"6": {
		ClassType: "VAEDecode",
		Inputs:    map[string]any{"samples": Ref{Node: "5", Slot: 0}, "vae": Ref{Node: "1", Slot: 2}},
	},
	"7": {
		ClassType: "PreviewImage",
		Inputs:    map[string]any{"images": Ref{Node: "6", Slot: 0}},
	},
}

// WorkflowPoseControlNet generates an image conditioned on a pose skeleton
// render through an openpose ControlNet.
// Slots: CHECKPOINT, CONTROLNET, POSE_IMAGE, PROMPT, NEGATIVE, WIDTH, HEIGHT,
// SEED. Output: node 10.
var WorkflowPoseControlNet = Graph{
	"1": {
		ClassType: "CheckpointLoaderSimple",
		Inputs:    map[string]any{"ckpt_name": Placeholder("CHECKPOINT")},
	},
	"2": {
		ClassType: "ControlNetLoader",
		Inputs:    map[string]any{"control_net_name": Placeholder("CONTROLNET")},
	},
	"3": {
		ClassType: "LoadImage",
		Inputs:    map[string]any{"image": Placeholder("POSE_IMAGE")},
	},
	"4": {
		ClassType: "CLIPTextEncode",
		Inputs:    map[string]any{"text": Placeholder("PROMPT"), "clip": Ref{Node: "1", Slot: 1}},
	},
	"5": {
		ClassType: "CLIPTextEncode",
		Inputs:    map[string]any{"text": Placeholder("NEGATIVE"), "clip": Ref{Node: "1", Slot: 1}},
	},
	"6": {
		ClassType: "ControlNetApplyAdvanced",
		Inputs: map[string]any{
			"positive":      Ref{Node: "4", Slot: 0},
			"negative":      Ref{Node: "5", Slot: 0},
			"control_net":   Ref{Node: "2", Slot: 0},
			"image":         Ref{Node: "3", Slot: 0},
			"strength":      0.9,
			"start_percent": 0.0,
			"end_percent":   1.0,
		},
	},
	"7": {
		ClassType: "EmptyLatentImage",
		Inputs: map[string]any{
			"width":      Placeholder("WIDTH"),
			"height":     Placeholder("HEIGHT"),
			"batch_size": 1,
		},
	},
	"8": {
		ClassType: "KSampler",
		Inputs: map[string]any{
			"model":        Ref{Node: "1", Slot: 0},
			"positive":     Ref{Node: "6", Slot: 0},
			"negative":     Ref{Node: "6", Slot: 1},
			"latent_image": Ref{Node: "7", Slot: 0},
			"seed":         Placeholder("SEED"),
			"steps":        30,
			"cfg":          7.0,
			"sampler_name": "dpmpp_2m",
			"scheduler":    "karras",
			"denoise":      1.0,
		},
	},
	"9": {
		ClassType: "VAEDecode",
		Inputs:    map[string]any{"samples": Ref{Node: "8", Slot: 0}, "vae": Ref{Node: "1", Slot: 2}},
	},
	"10": {
		ClassType: "PreviewImage",
		Inputs:    map[string]any{"images": Ref{Node: "9", Slot: 0}},
	},
}
