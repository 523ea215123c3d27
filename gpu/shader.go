package gpu

// workgroupSize must match the workgroup_size attribute in scatterShader.
const workgroupSize = 256

// scatterShader copies one pillar per invocation. Feature and grid
// storage is addressed as 32-bit words holding two float16 values each,
// which keeps the copy bit-exact without the shader-f16 extension.
// Colliding pillars race on the same cell; each word still comes whole
// from a single pillar, matching the last-writer-wins contract at word
// granularity.
const scatterShader = `
struct Params {
    count: u32,
    height: u32,
    width: u32,
    channels: u32,
    trusting: u32,
}

@group(0) @binding(0) var<storage, read> features: array<u32>;
@group(0) @binding(1) var<storage, read> coords: array<u32>;
@group(0) @binding(2) var<storage, read_write> grid: array<u32>;
@group(0) @binding(3) var<storage, read> params: Params;
@group(0) @binding(4) var<storage, read_write> rejected: atomic<u32>;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x;
    if (i >= params.count) {
        return;
    }

    let batch = coords[i * 4u];
    let y = coords[i * 4u + 1u];
    let x = coords[i * 4u + 2u];

    if (params.trusting == 0u) {
        if (batch != 0u || y >= params.height || x >= params.width) {
            atomicAdd(&rejected, 1u);
            return;
        }
    }

    let words = params.channels / 2u;
    let src = i * words;
    let dst = (y * params.width + x) * words;
    for (var w = 0u; w < words; w = w + 1u) {
        grid[dst + w] = features[src + w];
    }
}
`
